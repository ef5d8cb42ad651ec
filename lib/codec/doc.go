// Package codec implements deterministic byte encoding and decoding for
// FlaxKV keys and values.
//
// Key encoding uses a self-describing tag byte followed by a canonical
// payload, so that two logically equal keys always produce identical
// bytes and distinct types never collide. Value encoding uses a tagged
// msgpack representation that can carry scalars, text, bytes, ordered
// sequences, mappings, and dense numeric arrays.
package codec
