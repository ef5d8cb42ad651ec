package client

import (
	"context"
	"fmt"

	"github.com/flaxkv-go/flaxkv/lib/codec"
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/common"
	"github.com/flaxkv-go/flaxkv/rpc/serializer"
	"github.com/flaxkv-go/flaxkv/rpc/transport"
)

// NewRPCStore creates a store.Store client that forwards every operation
// to a remote flaxkv server over transport.
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.Store, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package's Store interface)
// --------------------------------------------------------------------------

func (c *rpcStore) Put(key, value any) error {
	kb, vb, err := encodeKV(key, value)
	if err != nil {
		return err
	}
	_, err = invokeRPCRequest(common.NewPutRequest(kb, vb), c.transport, c.serializer)
	return err
}

func (c *rpcStore) Get(key any) (any, error) {
	kb, err := codec.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(common.NewGetRequest(kb), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, store.ErrNotFound
	}
	return decodeValue(resp.Value)
}

func (c *rpcStore) Delete(key any) error {
	kb, err := codec.EncodeKey(key)
	if err != nil {
		return err
	}
	_, err = invokeRPCRequest(common.NewDeleteRequest(kb), c.transport, c.serializer)
	return err
}

func (c *rpcStore) Contains(key any) (bool, error) {
	kb, err := codec.EncodeKey(key)
	if err != nil {
		return false, err
	}
	resp, err := invokeRPCRequest(common.NewContainsRequest(kb), c.transport, c.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (c *rpcStore) SetDefault(key, value any) (any, error) {
	kb, vb, err := encodeKV(key, value)
	if err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(common.NewSetDefaultRequest(kb, vb), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return decodeValue(resp.Value)
}

func (c *rpcStore) Update(entries []store.Entry) error {
	kvs := make([]common.KV, len(entries))
	for i, e := range entries {
		kb, vb, err := encodeKV(e.Key, e.Value)
		if err != nil {
			return err
		}
		kvs[i] = common.KV{Key: kb, Value: vb}
	}
	_, err := invokeRPCRequest(common.NewUpdateRequest(kvs), c.transport, c.serializer)
	return err
}

func (c *rpcStore) Pop(key any) (any, error) {
	kb, err := codec.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(common.NewPopRequest(kb), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return decodeValue(resp.Value)
}

func (c *rpcStore) PopDefault(key, def any) (any, error) {
	kb, db, err := encodeKV(key, def)
	if err != nil {
		return nil, err
	}
	resp, err := invokeRPCRequest(common.NewPopDefaultRequest(kb, db), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	return decodeValue(resp.Value)
}

func (c *rpcStore) Len() (int, error) {
	resp, err := invokeRPCRequest(common.NewLenRequest(), c.transport, c.serializer)
	if err != nil {
		return 0, err
	}
	return int(resp.Len), nil
}

func (c *rpcStore) FlushNow(ctx context.Context) error {
	_, err := invokeRPCRequest(common.NewFlushNowRequest(), c.transport, c.serializer)
	return err
}

func (c *rpcStore) WriteImmediately(ctx context.Context) error {
	return c.FlushNow(ctx)
}

// Iterate is not implemented for the RPC client: streaming a
// snapshot-consistent iterator over the wire is out of scope for the
// simple request/response protocol this client speaks.
func (c *rpcStore) Iterate() (store.Iterator, error) {
	return nil, fmt.Errorf("rpc client: Iterate is not implemented over rpc")
}

func (c *rpcStore) Items() ([]store.Entry, error) {
	resp, err := invokeRPCRequest(common.NewItemsRequest(), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	entries := make([]store.Entry, len(resp.Update))
	for i, kv := range resp.Update {
		key, err := codec.DecodeKey(kv.Key)
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(kv.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = store.Entry{Key: key, Value: value}
	}
	return entries, nil
}

func (c *rpcStore) Keys() ([]any, error) {
	resp, err := invokeRPCRequest(common.NewKeysRequest(), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	keys := make([]any, len(resp.Keys))
	for i, kb := range resp.Keys {
		key, err := codec.DecodeKey(kb)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

func (c *rpcStore) Values() ([]any, error) {
	resp, err := invokeRPCRequest(common.NewValuesRequest(), c.transport, c.serializer)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(resp.Values))
	for i, vb := range resp.Values {
		value, err := decodeValue(vb)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func (c *rpcStore) Close() error {
	return c.transport.Close()
}

func encodeKV(key, value any) (kb, vb []byte, err error) {
	kb, err = codec.EncodeKey(key)
	if err != nil {
		return nil, nil, err
	}
	vb, err = codec.EncodeValue(codec.FromGo(value))
	if err != nil {
		return nil, nil, err
	}
	return kb, vb, nil
}

func decodeValue(vb []byte) (any, error) {
	v, err := codec.DecodeValue(vb)
	if err != nil {
		return nil, err
	}
	return codec.ToGo(v), nil
}
