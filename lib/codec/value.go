package codec

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies which alternative of the tagged Value variant is
// populated. This mirrors the "tagged variant over {scalar, text,
// bytes, sequence, mapping, numeric_array, raw_blob}" design note for
// modeling dynamically typed values in a typed language.
type Kind uint8

const (
	KindScalar Kind = iota
	KindText
	KindBytes
	KindSequence
	KindMapping
	KindNumericArray
	KindRawBlob
)

// NumericArray is a dense, homogeneously typed numeric array: an
// element-type tag, its shape, and the raw little-endian element
// buffer. This avoids per-element encoding overhead for large arrays.
type NumericArray struct {
	DType string
	Shape []int
	Data  []byte
}

// Value is the tagged variant every FlaxKV value is converted to and
// from before hitting the wire. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind         Kind
	Scalar       any
	Text         string
	Bytes        []byte
	Sequence     []Value
	Mapping      map[string]Value
	NumericArray NumericArray
	RawBlob      []byte
}

// wireValue is the on-the-wire msgpack shape. Keeping it distinct from
// Value lets Value carry Go-native scalar types (int64, float64, bool)
// while the wire form stays a small closed set of fields.
type wireValue struct {
	Kind uint8
	// Scalar, Text, Sequence, Mapping, DType and Shape are safe to
	// dropped from the wire when zero-valued: each Kind case
	// reconstructs them unconditionally on decode. Bytes, Data and
	// RawBlob are not: they carry the caller's payload verbatim, and an
	// empty-but-non-nil slice must round-trip distinctly from nil.
	Scalar   any                  `msgpack:",omitempty"`
	Text     string               `msgpack:",omitempty"`
	Bytes    []byte
	Sequence []wireValue          `msgpack:",omitempty"`
	Mapping  map[string]wireValue `msgpack:",omitempty"`
	DType    string               `msgpack:",omitempty"`
	Shape    []int                `msgpack:",omitempty"`
	Data     []byte
	RawBlob  []byte
}

func toWire(v Value) wireValue {
	w := wireValue{Kind: uint8(v.Kind)}
	switch v.Kind {
	case KindScalar:
		w.Scalar = v.Scalar
	case KindText:
		w.Text = v.Text
	case KindBytes:
		w.Bytes = v.Bytes
	case KindSequence:
		w.Sequence = make([]wireValue, len(v.Sequence))
		for i, e := range v.Sequence {
			w.Sequence[i] = toWire(e)
		}
	case KindMapping:
		w.Mapping = make(map[string]wireValue, len(v.Mapping))
		for k, e := range v.Mapping {
			w.Mapping[k] = toWire(e)
		}
	case KindNumericArray:
		w.DType = v.NumericArray.DType
		w.Shape = v.NumericArray.Shape
		w.Data = v.NumericArray.Data
	case KindRawBlob:
		w.RawBlob = v.RawBlob
	}
	return w
}

func fromWire(w wireValue) Value {
	v := Value{Kind: Kind(w.Kind)}
	switch v.Kind {
	case KindScalar:
		v.Scalar = w.Scalar
	case KindText:
		v.Text = w.Text
	case KindBytes:
		v.Bytes = w.Bytes
	case KindSequence:
		v.Sequence = make([]Value, len(w.Sequence))
		for i, e := range w.Sequence {
			v.Sequence[i] = fromWire(e)
		}
	case KindMapping:
		v.Mapping = make(map[string]Value, len(w.Mapping))
		for k, e := range w.Mapping {
			v.Mapping[k] = fromWire(e)
		}
	case KindNumericArray:
		v.NumericArray = NumericArray{DType: w.DType, Shape: w.Shape, Data: w.Data}
	case KindRawBlob:
		v.RawBlob = w.RawBlob
	}
	return v
}

// EncodeValue produces the canonical msgpack byte encoding of a value.
func EncodeValue(v Value) ([]byte, error) {
	b, err := msgpack.Marshal(toWire(v))
	if err != nil {
		return nil, encErr("value encode failed", err)
	}
	return b, nil
}

// DecodeValue reverses EncodeValue.
func DecodeValue(b []byte) (Value, error) {
	var w wireValue
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return Value{}, encErr("value decode failed", err)
	}
	return fromWire(w), nil
}

// FromGo converts a plain Go value into the tagged Value variant.
// Ordered-collection-of-unique-values and fixed-length ordered group
// values (Go []any, or anything the caller has already flattened into
// one) both degrade to KindSequence: this is a documented, tested
// degradation, not a codec error, matching the source's behavior of
// round-tripping sets and tuples as generic sequences.
func FromGo(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{Kind: KindScalar, Scalar: nil}
	case bool:
		return Value{Kind: KindScalar, Scalar: t}
	// Widened to int64/float64, mirroring key.go's appendInt/appendFloat:
	// msgpack's generic any-decode always produces int64/float64, so a
	// caller that Put a plain int and Get it back must see the same
	// widened type it would from key encoding, not its original width.
	case int:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case int8:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case int16:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case int32:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case int64:
		return Value{Kind: KindScalar, Scalar: t}
	case uint:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case uint8:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case uint16:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case uint32:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case uint64:
		return Value{Kind: KindScalar, Scalar: int64(t)}
	case float32:
		return Value{Kind: KindScalar, Scalar: float64(t)}
	case float64:
		return Value{Kind: KindScalar, Scalar: t}
	case string:
		return Value{Kind: KindText, Text: t}
	case []byte:
		return Value{Kind: KindBytes, Bytes: t}
	case []any:
		seq := make([]Value, len(t))
		for i, e := range t {
			seq[i] = FromGo(e)
		}
		return Value{Kind: KindSequence, Sequence: seq}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromGo(e)
		}
		return Value{Kind: KindMapping, Mapping: m}
	case NumericArray:
		return Value{Kind: KindNumericArray, NumericArray: t}
	default:
		return Value{Kind: KindScalar, Scalar: t}
	}
}

// ToGo converts a tagged Value back into a plain Go value.
func ToGo(v Value) any {
	switch v.Kind {
	case KindScalar:
		return v.Scalar
	case KindText:
		return v.Text
	case KindBytes:
		return v.Bytes
	case KindSequence:
		out := make([]any, len(v.Sequence))
		for i, e := range v.Sequence {
			out[i] = ToGo(e)
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.Mapping))
		for k, e := range v.Mapping {
			out[k] = ToGo(e)
		}
		return out
	case KindNumericArray:
		return v.NumericArray
	case KindRawBlob:
		return v.RawBlob
	default:
		return nil
	}
}
