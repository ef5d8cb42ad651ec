// Package overlay implements the in-memory write buffer and tombstone
// set that sits atop the engine, giving read-your-writes and
// merge-on-read semantics. An encoded key appears in at most one of
// the buffer or the tombstone set at any instant (invariant I1).
package overlay

import (
	"container/list"
	"sync"
)

// LookupResult is the three-valued result of Lookup.
type LookupResult int

const (
	Miss LookupResult = iota
	Hit
	Tombstoned
)

// Op is one entry drained from the overlay, ready to feed a commit
// batch. Order within a drained slice is overlay insertion order.
type Op struct {
	Key    string
	Delete bool
	Value  []byte
}

// Overlay is safe for concurrent use. Staging, Lookup and Size are
// O(1); Snapshot, Drain and Restage are linear in the number of keys
// they touch. No operation performs I/O; callers must not hold the
// overlay's lock across an engine call.
type Overlay struct {
	mu         sync.Mutex
	buffer     map[string][]byte
	tombstones map[string]struct{}
	order      *list.List
	elems      map[string]*list.Element
}

// New returns an empty overlay.
func New() *Overlay {
	return &Overlay{
		buffer:     make(map[string][]byte),
		tombstones: make(map[string]struct{}),
		order:      list.New(),
		elems:      make(map[string]*list.Element),
	}
}

func (o *Overlay) touch(key string) {
	if _, ok := o.elems[key]; ok {
		return
	}
	o.elems[key] = o.order.PushBack(key)
}

// StagePut removes key from tombstones (if present) and inserts or
// replaces it in the buffer.
func (o *Overlay) StagePut(key string, value []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.tombstones, key)
	o.buffer[key] = value
	o.touch(key)
}

// StageDelete removes key from the buffer (if present) and inserts it
// into the tombstone set.
func (o *Overlay) StageDelete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.buffer, key)
	o.tombstones[key] = struct{}{}
	o.touch(key)
}

// Lookup returns Hit(value) if key has a pending put, Tombstoned if key
// has a pending delete, or Miss if the overlay holds nothing for key.
func (o *Overlay) Lookup(key string) (LookupResult, []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.buffer[key]; ok {
		return Hit, v
	}
	if _, ok := o.tombstones[key]; ok {
		return Tombstoned, nil
	}
	return Miss, nil
}

// Snapshot returns a point-in-time shallow copy of the buffer and
// tombstone set, suitable for a merge-scan. Later mutations are not
// observed through the returned maps.
func (o *Overlay) Snapshot() (buffer map[string][]byte, tombstones map[string]struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	buffer = make(map[string][]byte, len(o.buffer))
	for k, v := range o.buffer {
		buffer[k] = v
	}
	tombstones = make(map[string]struct{}, len(o.tombstones))
	for k := range o.tombstones {
		tombstones[k] = struct{}{}
	}
	return buffer, tombstones
}

// Drain atomically detaches the current contents and returns them as a
// commit-ready ordered batch, in overlay insertion order. The overlay
// is empty after Drain returns.
func (o *Overlay) Drain() []Op {
	o.mu.Lock()
	defer o.mu.Unlock()
	ops := make([]Op, 0, o.order.Len())
	for el := o.order.Front(); el != nil; el = el.Next() {
		key := el.Value.(string)
		if v, ok := o.buffer[key]; ok {
			ops = append(ops, Op{Key: key, Value: v})
		} else {
			ops = append(ops, Op{Key: key, Delete: true})
		}
	}
	o.buffer = make(map[string][]byte)
	o.tombstones = make(map[string]struct{})
	o.order = list.New()
	o.elems = make(map[string]*list.Element)
	return ops
}

// Restage re-inserts ops that failed to commit, preserving per-key
// latest-wins against any mutation staged since the ops were drained:
// an op only re-applies if the key currently has no overlay entry at
// all (a newer mutation on that key always wins).
func (o *Overlay) Restage(ops []Op) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, op := range ops {
		if _, buffered := o.buffer[op.Key]; buffered {
			continue
		}
		if _, tombstoned := o.tombstones[op.Key]; tombstoned {
			continue
		}
		if op.Delete {
			o.tombstones[op.Key] = struct{}{}
		} else {
			o.buffer[op.Key] = op.Value
		}
		o.touch(op.Key)
	}
}

// Size returns the number of distinct keys currently staged.
func (o *Overlay) Size() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buffer) + len(o.tombstones)
}
