package codec

import (
	"bytes"
	"math"
	"testing"
)

func TestKeyRoundTrip(t *testing.T) {
	cases := []any{
		int64(1),
		int64(-42),
		1.5,
		true,
		false,
		"hello",
		[]byte{1, 2, 3},
		[]any{int64(1), "two", 3.0},
	}
	for _, c := range cases {
		enc, err := EncodeKey(c)
		if err != nil {
			t.Fatalf("EncodeKey(%v): %v", c, err)
		}
		dec, err := DecodeKey(enc)
		if err != nil {
			t.Fatalf("DecodeKey(%v): %v", enc, err)
		}
		if !deepEqualKey(c, dec) {
			t.Fatalf("round trip mismatch: got %#v, want %#v", dec, c)
		}
	}
}

func deepEqualKey(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqualKey(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func TestDistinctTypesDoNotCollide(t *testing.T) {
	intKey, _ := EncodeKey(int64(1))
	floatKey, _ := EncodeKey(1.0)
	textKey, _ := EncodeKey("1")

	if bytes.Equal(intKey, floatKey) || bytes.Equal(intKey, textKey) || bytes.Equal(floatKey, textKey) {
		t.Fatalf("distinct-typed keys must never encode identically")
	}
}

func TestNaNFloatKeyRejected(t *testing.T) {
	_, err := EncodeKey(math.NaN())
	if err == nil {
		t.Fatalf("expected error encoding NaN as a key")
	}
}

func TestKeyLengthBoundary(t *testing.T) {
	// A string key encodes as tag(1) + length(4) + payload, so this is
	// the largest string whose encoding lands exactly on MaxKeyLen.
	atLimit := string(make([]byte, MaxKeyLen-5))
	enc, err := EncodeKey(atLimit)
	if err != nil {
		t.Fatalf("EncodeKey at MaxKeyLen: %v", err)
	}
	if len(enc) != MaxKeyLen {
		t.Fatalf("expected encoded length %d, got %d", MaxKeyLen, len(enc))
	}

	overLimit := string(make([]byte, MaxKeyLen-4))
	if _, err := EncodeKey(overLimit); err == nil {
		t.Fatalf("expected EncodingError for a one-byte-over-limit key")
	} else if _, ok := err.(*EncodingError); !ok {
		t.Fatalf("expected *EncodingError, got %T", err)
	}
}
