package store

import (
	"sort"

	"github.com/flaxkv-go/flaxkv/lib/codec"
	"github.com/flaxkv-go/flaxkv/lib/engine"
)

// mergeIterator implements the two-pointer k-way merge over (engine
// iterator, overlay snapshot) described by the design notes: overlay
// entries interleave with engine entries in encoded-key order,
// tombstones suppress engine entries, and duplicates prefer the
// overlay (read-your-writes). The snapshot is taken once, at
// construction, so later mutations are not observed.
type mergeIterator struct {
	engIt engine.Iterator
	engOK bool

	overlayKeys []string
	overlayIdx  int
	buffer      map[string][]byte
	tombstones  map[string]struct{}

	curKey   any
	curValue any
	err      error
}

func (s *storeImpl) Iterate() (Iterator, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	buffer, tombstones := s.overlay.Snapshot()
	keys := make([]string, 0, len(buffer)+len(tombstones))
	for k := range buffer {
		keys = append(keys, k)
	}
	for k := range tombstones {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	engIt, err := s.eng.Iterate()
	if err != nil {
		return nil, &EngineError{Cause: err}
	}

	it := &mergeIterator{
		engIt:       engIt,
		overlayKeys: keys,
		buffer:      buffer,
		tombstones:  tombstones,
	}
	it.engOK = it.engIt.Next()
	return it, nil
}

// Items materializes the merged overlay+engine view as a slice of
// Entry, in engine key order. It is a convenience wrapper over
// Iterate for callers that do not need a streaming cursor.
func (s *storeImpl) Items() ([]Entry, error) {
	it, err := s.Iterate()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	entries := make([]Entry, 0)
	for it.Next() {
		entries = append(entries, Entry{Key: it.Key(), Value: it.Value()})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Keys returns every key currently visible through the merged
// overlay+engine view, in engine key order.
func (s *storeImpl) Keys() ([]any, error) {
	it, err := s.Iterate()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	keys := make([]any, 0)
	for it.Next() {
		keys = append(keys, it.Key())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Values returns every value currently visible through the merged
// overlay+engine view, in engine key order.
func (s *storeImpl) Values() ([]any, error) {
	it, err := s.Iterate()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	values := make([]any, 0)
	for it.Next() {
		values = append(values, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (it *mergeIterator) Next() bool {
	for {
		haveOverlay := it.overlayIdx < len(it.overlayKeys)
		haveEngine := it.engOK

		if !haveOverlay && !haveEngine {
			return false
		}

		var candidateKey string
		fromOverlay := false
		switch {
		case haveOverlay && haveEngine:
			ek := it.overlayKeys[it.overlayIdx]
			gk := string(it.engIt.Key())
			if ek <= gk {
				candidateKey = ek
				fromOverlay = true
			} else {
				candidateKey = gk
			}
		case haveOverlay:
			candidateKey = it.overlayKeys[it.overlayIdx]
			fromOverlay = true
		default:
			candidateKey = string(it.engIt.Key())
		}

		if fromOverlay {
			it.overlayIdx++
			// If the engine also holds this key, its record is
			// superseded; advance past it so it is not emitted twice.
			if haveEngine && string(it.engIt.Key()) == candidateKey {
				it.engOK = it.engIt.Next()
			}
			if _, tomb := it.tombstones[candidateKey]; tomb {
				continue
			}
			ev := it.buffer[candidateKey]
			if !it.decode(candidateKey, ev) {
				return false
			}
			return true
		}

		// From the engine, and not shadowed by any overlay entry.
		ev := it.engIt.Value()
		it.engOK = it.engIt.Next()
		if !it.decode(candidateKey, ev) {
			return false
		}
		return true
	}
}

func (it *mergeIterator) decode(ek string, ev []byte) bool {
	k, err := codec.DecodeKey([]byte(ek))
	if err != nil {
		it.err = err
		return false
	}
	v, err := codec.DecodeValue(ev)
	if err != nil {
		it.err = err
		return false
	}
	it.curKey = k
	it.curValue = codec.ToGo(v)
	return true
}

func (it *mergeIterator) Key() any   { return it.curKey }
func (it *mergeIterator) Value() any { return it.curValue }
func (it *mergeIterator) Err() error { return it.err }
func (it *mergeIterator) Close() error {
	return it.engIt.Close()
}
