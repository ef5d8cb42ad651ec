package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/flaxkv-go/flaxkv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags in the first flags byte, indicating which optional fields
// are present.
const (
	hasKey    byte = 1 << 0
	hasValue  byte = 1 << 1
	hasUpdate byte = 1 << 2
	hasOk     byte = 1 << 3
	hasLen    byte = 1 << 4
	hasErr    byte = 1 << 5
	hasMeta   byte = 1 << 6
	hasKeys   byte = 1 << 7
)

// Bit flags in the second flags byte.
const (
	hasValues byte = 1 << 0
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 3, b.sizeBytes(msg))

	result[0] = byte(msg.MsgType)

	var flags1, flags2 byte

	if msg.Key != nil {
		flags1 |= hasKey
		result = appendLenPrefixed(result, msg.Key)
	}

	if msg.Value != nil {
		flags1 |= hasValue
		result = appendLenPrefixed(result, msg.Value)
	}

	if msg.Update != nil {
		flags1 |= hasUpdate
		var countBuf [4]byte
		binary.BigEndian.PutUint32(countBuf[:], uint32(len(msg.Update)))
		result = append(result, countBuf[:]...)
		for _, kv := range msg.Update {
			result = appendLenPrefixed(result, kv.Key)
			result = appendLenPrefixed(result, kv.Value)
		}
	}

	if msg.Ok {
		flags1 |= hasOk
		result = append(result, 1)
	}

	if msg.Len != 0 {
		flags1 |= hasLen
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(msg.Len))
		result = append(result, lenBuf[:]...)
	}

	if msg.Err != "" {
		flags1 |= hasErr
		result = appendLenPrefixed(result, []byte(msg.Err))
	}

	if msg.Meta != nil {
		flags1 |= hasMeta
		result = appendLenPrefixed(result, msg.Meta)
	}

	if msg.Keys != nil {
		flags1 |= hasKeys
		result = appendByteSlices(result, msg.Keys)
	}

	if msg.Values != nil {
		flags2 |= hasValues
		result = appendByteSlices(result, msg.Values)
	}

	result[1] = flags1
	result[2] = flags2

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	msgType := common.MessageType(data[0])
	flags1 := data[1]
	flags2 := data[2]
	pos := 3

	*msg = common.Message{MsgType: msgType}

	if flags1&hasKey != 0 {
		key, next, err := readLenPrefixed(data, pos)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		msg.Key, pos = key, next
	}

	if flags1&hasValue != 0 {
		value, next, err := readLenPrefixed(data, pos)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		msg.Value, pos = value, next
	}

	if flags1&hasUpdate != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for update count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		update := make([]common.KV, 0, count)
		for i := uint32(0); i < count; i++ {
			key, next, err := readLenPrefixed(data, pos)
			if err != nil {
				return fmt.Errorf("update[%d].key: %w", i, err)
			}
			pos = next
			value, next, err := readLenPrefixed(data, pos)
			if err != nil {
				return fmt.Errorf("update[%d].value: %w", i, err)
			}
			pos = next
			update = append(update, common.KV{Key: key, Value: value})
		}
		msg.Update = update
	}

	if flags1&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	}

	if flags1&hasLen != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for Len")
		}
		msg.Len = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	}

	if flags1&hasErr != 0 {
		errBytes, next, err := readLenPrefixed(data, pos)
		if err != nil {
			return fmt.Errorf("err: %w", err)
		}
		msg.Err, pos = string(errBytes), next
	}

	if flags1&hasMeta != 0 {
		meta, next, err := readLenPrefixed(data, pos)
		if err != nil {
			return fmt.Errorf("meta: %w", err)
		}
		msg.Meta, pos = meta, next
	}

	if flags1&hasKeys != 0 {
		keys, next, err := readByteSlices(data, pos)
		if err != nil {
			return fmt.Errorf("keys: %w", err)
		}
		msg.Keys, pos = keys, next
	}

	if flags2&hasValues != 0 {
		values, next, err := readByteSlices(data, pos)
		if err != nil {
			return fmt.Errorf("values: %w", err)
		}
		msg.Values, pos = values, next
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func appendLenPrefixed(dst []byte, b []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, b...)
	return dst
}

func readLenPrefixed(data []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for length prefix")
	}
	n := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(n) > len(data) {
		return nil, 0, fmt.Errorf("data too short for %d bytes", n)
	}
	out := make([]byte, n)
	copy(out, data[pos:pos+int(n)])
	return out, pos + int(n), nil
}

// appendByteSlices writes a count-prefixed list of length-prefixed
// byte slices, used for the Keys and Values fields.
func appendByteSlices(dst []byte, slices [][]byte) []byte {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(slices)))
	dst = append(dst, countBuf[:]...)
	for _, s := range slices {
		dst = appendLenPrefixed(dst, s)
	}
	return dst
}

func readByteSlices(data []byte, pos int) ([][]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for slice count")
	}
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		s, next, err := readLenPrefixed(data, pos)
		if err != nil {
			return nil, 0, fmt.Errorf("[%d]: %w", i, err)
		}
		pos = next
		out = append(out, s)
	}
	return out, pos, nil
}

// sizeBytes estimates the buffer capacity needed for serialization.
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := 3
	if msg.Key != nil {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Update != nil {
		size += 4
		for _, kv := range msg.Update {
			size += 4 + len(kv.Key) + 4 + len(kv.Value)
		}
	}
	if msg.Ok {
		size += 1
	}
	if msg.Len != 0 {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}
	if msg.Keys != nil {
		size += 4
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Values != nil {
		size += 4
		for _, v := range msg.Values {
			size += 4 + len(v)
		}
	}
	return size
}
