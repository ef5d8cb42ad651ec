package server

import (
	"context"
	"fmt"
	"time"

	"github.com/flaxkv-go/flaxkv/lib/codec"
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/common"
)

// NewStoreServerAdapter creates an adapter translating wire Messages into
// calls against a store.Store. Keys and values arrive already
// codec-encoded; the adapter decodes them to the Go values the store
// façade expects and re-encodes results for the response.
func NewStoreServerAdapter() IRPCServerAdapter {
	return &storeServerAdapterImpl{}
}

type storeServerAdapterImpl struct{}

func (a *storeServerAdapterImpl) Handle(req *common.Message, s store.Store) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTPut:
		key, value, err := decodeKV(req.Key, req.Value)
		if err != nil {
			return common.NewPutResponse(err)
		}
		return common.NewPutResponse(s.Put(key, value))

	case common.MsgTGet:
		key, err := decodeKey(req.Key)
		if err != nil {
			return common.NewGetResponse(nil, false, err)
		}
		v, err := s.Get(key)
		if err != nil {
			return common.NewGetResponse(nil, false, err)
		}
		vb, err := encodeValue(v)
		return common.NewGetResponse(vb, true, err)

	case common.MsgTDelete:
		key, err := decodeKey(req.Key)
		if err != nil {
			return common.NewDeleteResponse(err)
		}
		return common.NewDeleteResponse(s.Delete(key))

	case common.MsgTContains:
		key, err := decodeKey(req.Key)
		if err != nil {
			return common.NewContainsResponse(false, err)
		}
		ok, err := s.Contains(key)
		return common.NewContainsResponse(ok, err)

	case common.MsgTSetDefault:
		key, value, err := decodeKV(req.Key, req.Value)
		if err != nil {
			return common.NewSetDefaultResponse(nil, err)
		}
		v, err := s.SetDefault(key, value)
		if err != nil {
			return common.NewSetDefaultResponse(nil, err)
		}
		vb, err := encodeValue(v)
		return common.NewSetDefaultResponse(vb, err)

	case common.MsgTUpdate:
		entries := make([]store.Entry, len(req.Update))
		for i, kv := range req.Update {
			key, value, err := decodeKV(kv.Key, kv.Value)
			if err != nil {
				return common.NewUpdateResponse(err)
			}
			entries[i] = store.Entry{Key: key, Value: value}
		}
		return common.NewUpdateResponse(s.Update(entries))

	case common.MsgTPop:
		key, err := decodeKey(req.Key)
		if err != nil {
			return common.NewPopResponse(nil, err)
		}
		v, err := s.Pop(key)
		if err != nil {
			return common.NewPopResponse(nil, err)
		}
		vb, err := encodeValue(v)
		return common.NewPopResponse(vb, err)

	case common.MsgTPopDefault:
		key, def, err := decodeKV(req.Key, req.Value)
		if err != nil {
			return common.NewPopDefaultResponse(nil, err)
		}
		v, err := s.PopDefault(key, def)
		if err != nil {
			return common.NewPopDefaultResponse(nil, err)
		}
		vb, err := encodeValue(v)
		return common.NewPopDefaultResponse(vb, err)

	case common.MsgTLen:
		n, err := s.Len()
		return common.NewLenResponse(int64(n), err)

	case common.MsgTFlushNow:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return common.NewFlushNowResponse(s.FlushNow(ctx))

	case common.MsgTItems:
		items, err := s.Items()
		if err != nil {
			return common.NewItemsResponse(nil, err)
		}
		kvs := make([]common.KV, len(items))
		for i, e := range items {
			kb, vb, err := encodeKV(e.Key, e.Value)
			if err != nil {
				return common.NewItemsResponse(nil, err)
			}
			kvs[i] = common.KV{Key: kb, Value: vb}
		}
		return common.NewItemsResponse(kvs, nil)

	case common.MsgTKeys:
		keys, err := s.Keys()
		if err != nil {
			return common.NewKeysResponse(nil, err)
		}
		kbs := make([][]byte, len(keys))
		for i, k := range keys {
			kb, err := codec.EncodeKey(k)
			if err != nil {
				return common.NewKeysResponse(nil, err)
			}
			kbs[i] = kb
		}
		return common.NewKeysResponse(kbs, nil)

	case common.MsgTValues:
		values, err := s.Values()
		if err != nil {
			return common.NewValuesResponse(nil, err)
		}
		vbs := make([][]byte, len(values))
		for i, v := range values {
			vb, err := encodeValue(v)
			if err != nil {
				return common.NewValuesResponse(nil, err)
			}
			vbs[i] = vb
		}
		return common.NewValuesResponse(vbs, nil)

	default:
		return common.NewErrorResponse(
			fmt.Sprintf("store adapter: unsupported message type: %s", req.MsgType),
		)
	}
}

func decodeKey(kb []byte) (any, error) {
	return codec.DecodeKey(kb)
}

func decodeKV(kb, vb []byte) (key, value any, err error) {
	key, err = codec.DecodeKey(kb)
	if err != nil {
		return nil, nil, err
	}
	val, err := codec.DecodeValue(vb)
	if err != nil {
		return nil, nil, err
	}
	return key, codec.ToGo(val), nil
}

func encodeValue(v any) ([]byte, error) {
	return codec.EncodeValue(codec.FromGo(v))
}

func encodeKV(key, value any) (kb, vb []byte, err error) {
	kb, err = codec.EncodeKey(key)
	if err != nil {
		return nil, nil, err
	}
	vb, err = encodeValue(value)
	if err != nil {
		return nil, nil, err
	}
	return kb, vb, nil
}

type MessageHandler func(req *common.Message) (resp *common.Message)

type RegisterMessageHandler func(handler MessageHandler)
