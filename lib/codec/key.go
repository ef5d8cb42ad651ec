package codec

import (
	"encoding/binary"
	"math"
)

// Key tag bytes. Each tag fully determines how to parse the payload that
// follows it, so two logically equal keys always encode to identical
// bytes and no two distinct types ever collide.
const (
	tagInt   byte = 'I'
	tagFloat byte = 'F'
	tagBool  byte = 'B'
	tagText  byte = 'S'
	tagBytes byte = 'Y'
	tagGroup byte = 'T'
)

// MaxKeyLen bounds the encoded length of a key. Both reference engines
// (bbolt's B+tree, pebble's LSM) tolerate far larger keys, but a fixed
// ceiling keeps key comparisons and page layouts cheap and predictable
// across engines.
const MaxKeyLen = 512

// EncodeKey produces the canonical byte encoding of a logical key.
// Supported inputs are int64 (and the other Go integer kinds, widened),
// float64, bool, string, []byte, and []any holding a fixed-length
// ordered group of any of the above.
func EncodeKey(k any) ([]byte, error) {
	buf := make([]byte, 0, 16)
	buf, err := appendKey(buf, k)
	if err != nil {
		return nil, err
	}
	if len(buf) > MaxKeyLen {
		return nil, encErr("key exceeds maximum encoded length", nil)
	}
	return buf, nil
}

func appendKey(buf []byte, k any) ([]byte, error) {
	switch v := k.(type) {
	case int:
		return appendInt(buf, int64(v)), nil
	case int8:
		return appendInt(buf, int64(v)), nil
	case int16:
		return appendInt(buf, int64(v)), nil
	case int32:
		return appendInt(buf, int64(v)), nil
	case int64:
		return appendInt(buf, v), nil
	case uint:
		return appendInt(buf, int64(v)), nil
	case uint8:
		return appendInt(buf, int64(v)), nil
	case uint16:
		return appendInt(buf, int64(v)), nil
	case uint32:
		return appendInt(buf, int64(v)), nil
	case uint64:
		return appendInt(buf, int64(v)), nil
	case float32:
		return appendFloat(buf, float64(v))
	case float64:
		return appendFloat(buf, v)
	case bool:
		return appendBool(buf, v), nil
	case string:
		return appendText(buf, v), nil
	case []byte:
		return appendBytes(buf, v), nil
	case []any:
		return appendGroup(buf, v)
	default:
		return nil, encErr("unsupported key type", nil)
	}
}

func appendInt(buf []byte, v int64) []byte {
	buf = append(buf, tagInt)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func appendFloat(buf []byte, v float64) ([]byte, error) {
	if math.IsNaN(v) {
		return nil, encErr("NaN is not a valid key", nil)
	}
	buf = append(buf, tagFloat)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...), nil
}

func appendBool(buf []byte, v bool) []byte {
	buf = append(buf, tagBool)
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendText(buf []byte, v string) []byte {
	buf = append(buf, tagText)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, v...)
}

func appendBytes(buf []byte, v []byte) []byte {
	buf = append(buf, tagBytes)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, v...)
}

func appendGroup(buf []byte, v []any) ([]byte, error) {
	buf = append(buf, tagGroup)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(v)))
	buf = append(buf, countBuf[:]...)
	var err error
	for _, elem := range v {
		buf, err = appendKey(buf, elem)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeKey reverses EncodeKey, returning the logical key value. Groups
// decode to []any.
func DecodeKey(b []byte) (any, error) {
	v, rest, err := decodeKeyElem(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, encErr("trailing bytes after key", nil)
	}
	return v, nil
}

func decodeKeyElem(b []byte) (any, []byte, error) {
	if len(b) == 0 {
		return nil, nil, encErr("empty key encoding", nil)
	}
	tag := b[0]
	b = b[1:]
	switch tag {
	case tagInt:
		if len(b) < 8 {
			return nil, nil, encErr("truncated int key", nil)
		}
		return int64(binary.BigEndian.Uint64(b[:8])), b[8:], nil
	case tagFloat:
		if len(b) < 8 {
			return nil, nil, encErr("truncated float key", nil)
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b[:8])), b[8:], nil
	case tagBool:
		if len(b) < 1 {
			return nil, nil, encErr("truncated bool key", nil)
		}
		return b[0] != 0, b[1:], nil
	case tagText:
		if len(b) < 4 {
			return nil, nil, encErr("truncated text key length", nil)
		}
		n := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		if uint32(len(b)) < n {
			return nil, nil, encErr("truncated text key payload", nil)
		}
		return string(b[:n]), b[n:], nil
	case tagBytes:
		if len(b) < 4 {
			return nil, nil, encErr("truncated bytes key length", nil)
		}
		n := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		if uint32(len(b)) < n {
			return nil, nil, encErr("truncated bytes key payload", nil)
		}
		out := make([]byte, n)
		copy(out, b[:n])
		return out, b[n:], nil
	case tagGroup:
		if len(b) < 4 {
			return nil, nil, encErr("truncated group key count", nil)
		}
		n := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		elems := make([]any, 0, n)
		for i := uint32(0); i < n; i++ {
			var v any
			var err error
			v, b, err = decodeKeyElem(b)
			if err != nil {
				return nil, nil, err
			}
			elems = append(elems, v)
		}
		return elems, b, nil
	default:
		return nil, nil, encErr("unknown key tag", nil)
	}
}
