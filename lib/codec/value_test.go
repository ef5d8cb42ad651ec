package codec

import (
	"bytes"
	"reflect"
	"testing"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []Value{
		{Kind: KindScalar, Scalar: int64(42)},
		{Kind: KindText, Text: "hello"},
		{Kind: KindBytes, Bytes: []byte{1, 2, 3}},
		// An empty-but-non-nil byte value must round-trip as such, not
		// collapse to nil.
		{Kind: KindBytes, Bytes: []byte{}},
		{Kind: KindSequence, Sequence: []Value{
			{Kind: KindScalar, Scalar: int64(1)},
			{Kind: KindText, Text: "two"},
		}},
		{Kind: KindMapping, Mapping: map[string]Value{
			"a": {Kind: KindScalar, Scalar: int64(1)},
		}},
		{Kind: KindNumericArray, NumericArray: NumericArray{
			DType: "float64",
			Shape: []int{2, 2},
			Data:  []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		}},
		{Kind: KindRawBlob, RawBlob: []byte("blob")},
		{Kind: KindRawBlob, RawBlob: []byte{}},
	}
	for _, v := range cases {
		enc, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("EncodeValue(%+v): %v", v, err)
		}
		dec, err := DecodeValue(enc)
		if err != nil {
			t.Fatalf("DecodeValue: %v", err)
		}
		if dec.Kind != v.Kind {
			t.Fatalf("Kind mismatch: got %v, want %v", dec.Kind, v.Kind)
		}

		switch v.Kind {
		case KindScalar:
			if dec.Scalar != v.Scalar {
				t.Fatalf("Scalar mismatch: got %#v, want %#v", dec.Scalar, v.Scalar)
			}
		case KindText:
			if dec.Text != v.Text {
				t.Fatalf("Text mismatch: got %q, want %q", dec.Text, v.Text)
			}
		case KindBytes:
			if !bytes.Equal(dec.Bytes, v.Bytes) {
				t.Fatalf("Bytes mismatch: got %v, want %v", dec.Bytes, v.Bytes)
			}
			if (dec.Bytes == nil) != (v.Bytes == nil) {
				t.Fatalf("Bytes nil-ness mismatch: got %#v, want %#v", dec.Bytes, v.Bytes)
			}
		case KindSequence:
			if !reflect.DeepEqual(dec.Sequence, v.Sequence) {
				t.Fatalf("Sequence mismatch: got %#v, want %#v", dec.Sequence, v.Sequence)
			}
		case KindMapping:
			if !reflect.DeepEqual(dec.Mapping, v.Mapping) {
				t.Fatalf("Mapping mismatch: got %#v, want %#v", dec.Mapping, v.Mapping)
			}
		case KindNumericArray:
			if dec.NumericArray.DType != v.NumericArray.DType ||
				!reflect.DeepEqual(dec.NumericArray.Shape, v.NumericArray.Shape) ||
				!bytes.Equal(dec.NumericArray.Data, v.NumericArray.Data) {
				t.Fatalf("NumericArray mismatch: got %#v, want %#v", dec.NumericArray, v.NumericArray)
			}
		case KindRawBlob:
			if !bytes.Equal(dec.RawBlob, v.RawBlob) {
				t.Fatalf("RawBlob mismatch: got %v, want %v", dec.RawBlob, v.RawBlob)
			}
			if (dec.RawBlob == nil) != (v.RawBlob == nil) {
				t.Fatalf("RawBlob nil-ness mismatch: got %#v, want %#v", dec.RawBlob, v.RawBlob)
			}
		}
	}
}

func TestSetsAndTuplesDegradeToSequence(t *testing.T) {
	// A Go slice used to represent an ordered-unique-values collection
	// (the closest stand-in for a "set" without a dedicated Go type)
	// and a fixed-length group both convert to KindSequence: this
	// degradation is intentional and documented, not an error.
	setLike := FromGo([]any{int64(1), int64(2), int64(3)})
	tupleLike := FromGo([]any{int64(1), "x"})

	if setLike.Kind != KindSequence {
		t.Fatalf("set-like value did not degrade to KindSequence: %v", setLike.Kind)
	}
	if tupleLike.Kind != KindSequence {
		t.Fatalf("tuple-like value did not degrade to KindSequence: %v", tupleLike.Kind)
	}
}

func TestNumericScalarsCanonicalizeThroughRoundTrip(t *testing.T) {
	// A plain int/uint/float32 must come back as int64/float64: msgpack's
	// generic any-decode never reproduces the original narrower width,
	// so FromGo widens up front the same way key.go's appendInt/
	// appendFloat do.
	cases := []struct {
		in   any
		want any
	}{
		{int(42), int64(42)},
		{int8(-8), int64(-8)},
		{int16(16), int64(16)},
		{int32(32), int64(32)},
		{int64(64), int64(64)},
		{uint(1), int64(1)},
		{uint8(2), int64(2)},
		{uint16(3), int64(3)},
		{uint32(4), int64(4)},
		{uint64(5), int64(5)},
		{float32(1.5), float64(1.5)},
		{float64(2.5), float64(2.5)},
	}
	for _, c := range cases {
		v := FromGo(c.in)
		enc, err := EncodeValue(v)
		if err != nil {
			t.Fatalf("EncodeValue(%v): %v", c.in, err)
		}
		dec, err := DecodeValue(enc)
		if err != nil {
			t.Fatalf("DecodeValue: %v", err)
		}
		got := ToGo(dec)
		if got != c.want {
			t.Fatalf("FromGo(%#v) round trip = %#v (%T), want %#v (%T)", c.in, got, got, c.want, c.want)
		}
	}
}

func TestFromGoToGoRoundTrip(t *testing.T) {
	orig := map[string]any{
		"n": int64(5),
		"s": "text",
		"l": []any{int64(1), int64(2)},
	}
	v := FromGo(orig)
	enc, err := EncodeValue(v)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	dec, err := DecodeValue(enc)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	got := ToGo(dec).(map[string]any)
	if got["s"] != "text" {
		t.Fatalf("got[s] = %v, want text", got["s"])
	}
	seq, ok := got["l"].([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("got[l] = %v, want a 2-element sequence", got["l"])
	}
}
