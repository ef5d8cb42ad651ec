// Package engine abstracts the backing ordered key-value store behind a
// minimal surface: point get, contains, ordered iteration, atomic batch
// commit, stat, and drop-all-for-rebuild. Two implementations are
// provided: mmapbtree (go.etcd.io/bbolt) and lsm (github.com/
// cockroachdb/pebble).
package engine

import "errors"

// OpKind distinguishes the two operations a commit batch can carry.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
)

// Op is one operation within a commit batch. Ops within a batch are
// applied in slice order.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte // meaningful only when Kind == OpPut
}

// Stat summarizes engine occupancy. Exact reports whether EntryCount is
// a precise live-key count (true for mmapbtree) or an estimate that may
// drift under compaction (false for lsm).
type Stat struct {
	EntryCount int64
	SizeBytes  int64
	Exact      bool
}

// EngineError wraps an underlying engine I/O failure.
type EngineError struct {
	Cause error
}

func (e *EngineError) Error() string { return "engine: " + e.Cause.Error() }
func (e *EngineError) Unwrap() error { return e.Cause }

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Cause: err}
}

// ErrDropAllOnOpenStore reports a DropAll issued without rebuild
// semantics. Neither engine in this module returns it: both DropAll
// implementations drop unconditionally.
var ErrDropAllOnOpenStore = errors.New("engine: drop_all called without rebuild")

// Iterator is a finite, non-restartable, engine-ordered sequence of
// records. Callers must call Close on every exit path, including after
// an error from Next.
type Iterator interface {
	// Next advances the iterator. It returns false at end-of-sequence
	// or on error; callers must check Err to distinguish the two.
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// Engine is the uniform ordered-KV surface consumed by the overlay
// flusher and the store façade's read/iterate paths.
type Engine interface {
	// Get returns the value for key, or found == false if absent.
	Get(key []byte) (value []byte, found bool, err error)

	Contains(key []byte) (bool, error)

	// Iterate returns a lazily-consumed sequence over all records in
	// engine-defined key order.
	Iterate() (Iterator, error)

	// CommitBatch applies ops atomically and, on success, durably.
	CommitBatch(ops []Op) error

	Stat() (Stat, error)

	// DropAll removes all records, for rebuild-on-open.
	DropAll() error

	Close() error
}
