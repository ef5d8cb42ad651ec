// Package store implements the public FlaxKV façade (C5): a mapping-
// like surface composing the codec, overlay, flusher, and engine under
// the concurrency discipline described by the specification this
// module implements.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"

	"github.com/flaxkv-go/flaxkv/internal/logging"
	"github.com/flaxkv-go/flaxkv/lib/codec"
	"github.com/flaxkv-go/flaxkv/lib/engine"
	"github.com/flaxkv-go/flaxkv/lib/engine/lsm"
	"github.com/flaxkv-go/flaxkv/lib/engine/mmapbtree"
	"github.com/flaxkv-go/flaxkv/lib/flusher"
	"github.com/flaxkv-go/flaxkv/lib/overlay"
)

// Entry is one key/value pair passed to Update.
type Entry struct {
	Key   any
	Value any
}

// Iterator is a finite, non-restartable, snapshot-consistent sequence
// over the merged overlay+engine view in engine key order.
type Iterator interface {
	Next() bool
	Key() any
	Value() any
	Err() error
	Close() error
}

// Store is the public façade surface. All operations take and return
// logical Go values; encoding is internal.
type Store interface {
	Put(key, value any) error
	Get(key any) (any, error)
	Delete(key any) error
	Pop(key any) (any, error)
	PopDefault(key, def any) (any, error)
	Contains(key any) (bool, error)
	SetDefault(key, value any) (any, error)
	Update(entries []Entry) error
	Len() (int, error)
	Iterate() (Iterator, error)
	Items() ([]Entry, error)
	Keys() ([]any, error)
	Values() ([]any, error)
	FlushNow(ctx context.Context) error
	WriteImmediately(ctx context.Context) error
	Close() error
}

type storeImpl struct {
	cfg     Config
	eng     engine.Engine
	overlay *overlay.Overlay
	flusher *flusher.Flusher
	log     logging.Logger

	// keyOpMu serializes every key-level operation (Put, Get, Delete,
	// Contains, Pop, PopDefault, SetDefault, Update) against every
	// other one, so that the compound read-modify-write operations are
	// atomic with respect to concurrent single-key operations on the
	// same façade, per §4.5. It is held across engine point reads
	// (a compound operation such as Pop may make more than one), but
	// never across a CommitBatch or a flush wait.
	keyOpMu sync.Mutex

	closeOnce sync.Once
	closed    atomic32

	puts, gets, deletes *vmetrics.Counter
}

type atomic32 struct {
	mu sync.RWMutex
	v  bool
}

func (a *atomic32) get() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.v
}

func (a *atomic32) set(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v = v
}

// Open opens or creates a store at cfg.Path with the given engine kind.
func Open(cfg Config) (Store, error) {
	cfg = cfg.withDefaults()

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, &EngineError{Cause: err}
	}

	m, err := loadOrCreateMeta(cfg.Path, cfg.EngineKind, cfg.Rebuild)
	if err != nil {
		return nil, err
	}
	_ = m

	eng, err := openEngine(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Rebuild {
		if err := eng.DropAll(); err != nil {
			_ = eng.Close()
			return nil, &EngineError{Cause: err}
		}
	}

	ov := overlay.New()
	fl := flusher.New(ov, eng, flusher.Config{
		FlushInterval: cfg.FlushInterval,
		HighWater:     cfg.HighWaterW,
	}, cfg.Logger, cfg.MetricsRegistry)

	s := &storeImpl{
		cfg:     cfg,
		eng:     eng,
		overlay: ov,
		flusher: fl,
		log:     cfg.Logger,
		puts:    vmetrics.GetOrCreateCounter(fmt.Sprintf(`flaxkv_puts_total{path=%q}`, cfg.Path)),
		gets:    vmetrics.GetOrCreateCounter(fmt.Sprintf(`flaxkv_gets_total{path=%q}`, cfg.Path)),
		deletes: vmetrics.GetOrCreateCounter(fmt.Sprintf(`flaxkv_deletes_total{path=%q}`, cfg.Path)),
	}
	vmetrics.GetOrCreateGauge(fmt.Sprintf(`flaxkv_overlay_size{path=%q}`, cfg.Path), func() float64 {
		return float64(ov.Size())
	})
	fl.Start()
	registerStore(s)
	return s, nil
}

func openEngine(cfg Config) (engine.Engine, error) {
	switch cfg.EngineKind {
	case EngineMmapBTree, "":
		return mmapbtree.Open(mmapbtree.Config{Path: cfg.Path, MapSizeHint: cfg.MapSizeHint})
	case EngineLSM:
		return lsm.Open(lsm.Config{Path: cfg.Path, MapSizeHint: cfg.MapSizeHint})
	default:
		return nil, fmt.Errorf("flaxkv: unknown engine_kind %q", cfg.EngineKind)
	}
}

func (s *storeImpl) checkOpen() error {
	if s.closed.get() {
		return ErrClosed
	}
	return nil
}

// surfaceFlusherErr checks for a captured flusher error and, if the
// overlay is also at capacity, upgrades it to CapacityExceeded so
// writes fail fast rather than silently piling up.
func (s *storeImpl) surfaceFlusherErr() error {
	err := s.flusher.TakeLastError()
	if err == nil {
		return nil
	}
	if s.flusher.HighWaterExceeded() {
		return &CapacityExceededError{LastFlushErr: err}
	}
	return &EngineError{Cause: err}
}

func encodeKV(key, value any) (string, []byte, error) {
	kb, err := codec.EncodeKey(key)
	if err != nil {
		return "", nil, err
	}
	vb, err := codec.EncodeValue(codec.FromGo(value))
	if err != nil {
		return "", nil, err
	}
	return string(kb), vb, nil
}

func (s *storeImpl) Put(key, value any) error {
	s.keyOpMu.Lock()
	err := s.putLocked(key, value)
	s.keyOpMu.Unlock()
	if err != nil {
		return err
	}
	// enforceHighWater can block for up to 30s waiting on the flusher;
	// it must run after keyOpMu is released so a concurrent Get/Contains
	// (§5 Suspension Points: overlay mutex and engine read only) never
	// queues behind it.
	return s.enforceHighWater()
}

// putLocked stages the write and returns. Callers hold keyOpMu; it
// never blocks on the flush barrier itself, so the lock is only ever
// held for overlay-staging work.
func (s *storeImpl) putLocked(key, value any) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.surfaceFlusherErr(); err != nil {
		return err
	}
	ek, ev, err := encodeKV(key, value)
	if err != nil {
		return err
	}
	s.overlay.StagePut(ek, ev)
	s.puts.Inc()
	return nil
}

func (s *storeImpl) enforceHighWater() error {
	if !s.flusher.HighWaterExceeded() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.flusher.FlushNow(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &EngineError{Cause: err}
	}
	return nil
}

func (s *storeImpl) Get(key any) (any, error) {
	s.keyOpMu.Lock()
	defer s.keyOpMu.Unlock()
	return s.getLocked(key)
}

func (s *storeImpl) getLocked(key any) (any, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ek, err := codec.EncodeKey(key)
	if err != nil {
		return nil, err
	}
	s.gets.Inc()
	v, err := s.lookup(string(ek))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	val, err := codec.DecodeValue(v)
	if err != nil {
		return nil, err
	}
	return codec.ToGo(val), nil
}

// lookup consults the overlay first (read-your-writes) and falls back
// to the engine. It returns (nil, nil) for a definite miss.
func (s *storeImpl) lookup(ek string) ([]byte, error) {
	res, v := s.overlay.Lookup(ek)
	switch res {
	case overlay.Hit:
		return v, nil
	case overlay.Tombstoned:
		return nil, nil
	}
	ev, found, err := s.eng.Get([]byte(ek))
	if err != nil {
		return nil, &EngineError{Cause: err}
	}
	if !found {
		return nil, nil
	}
	return ev, nil
}

func (s *storeImpl) Contains(key any) (bool, error) {
	s.keyOpMu.Lock()
	defer s.keyOpMu.Unlock()
	return s.containsLocked(key)
}

func (s *storeImpl) containsLocked(key any) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	ek, err := codec.EncodeKey(key)
	if err != nil {
		return false, err
	}
	v, err := s.lookup(string(ek))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (s *storeImpl) Delete(key any) error {
	s.keyOpMu.Lock()
	defer s.keyOpMu.Unlock()
	return s.deleteLocked(key)
}

func (s *storeImpl) deleteLocked(key any) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ek, err := codec.EncodeKey(key)
	if err != nil {
		return err
	}
	found, err := s.containsLocked(key)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	s.overlay.StageDelete(string(ek))
	s.deletes.Inc()
	return nil
}

func (s *storeImpl) Pop(key any) (any, error) {
	s.keyOpMu.Lock()
	defer s.keyOpMu.Unlock()
	v, err := s.getLocked(key)
	if err != nil {
		return nil, err
	}
	if err := s.deleteLocked(key); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *storeImpl) PopDefault(key, def any) (any, error) {
	s.keyOpMu.Lock()
	defer s.keyOpMu.Unlock()
	v, err := s.getLocked(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.deleteLocked(key); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return v, nil
}

func (s *storeImpl) SetDefault(key, value any) (any, error) {
	s.keyOpMu.Lock()
	v, err := s.getLocked(key)
	if err == nil {
		s.keyOpMu.Unlock()
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.keyOpMu.Unlock()
		return nil, err
	}
	putErr := s.putLocked(key, value)
	s.keyOpMu.Unlock()
	if putErr != nil {
		return nil, putErr
	}
	if err := s.enforceHighWater(); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *storeImpl) Update(entries []Entry) error {
	s.keyOpMu.Lock()
	err := func() error {
		if err := s.checkOpen(); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.putLocked(e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	}()
	s.keyOpMu.Unlock()
	if err != nil {
		return err
	}
	return s.enforceHighWater()
}

func (s *storeImpl) Len() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	st, err := s.eng.Stat()
	if err != nil {
		return 0, &EngineError{Cause: err}
	}
	buffer, tombstones := s.overlay.Snapshot()

	count := int(st.EntryCount)
	for k := range buffer {
		found, err := s.eng.Contains([]byte(k))
		if err != nil {
			return 0, &EngineError{Cause: err}
		}
		if !found {
			count++
		}
	}
	for k := range tombstones {
		found, err := s.eng.Contains([]byte(k))
		if err != nil {
			return 0, &EngineError{Cause: err}
		}
		if found {
			count--
		}
	}
	return count, nil
}

func (s *storeImpl) FlushNow(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.flusher.FlushNow(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if err != nil {
		return &EngineError{Cause: err}
	}
	return nil
}

func (s *storeImpl) WriteImmediately(ctx context.Context) error {
	return s.FlushNow(ctx)
}

func (s *storeImpl) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closed.set(true)
		s.flusher.Stop()
		unregisterStore(s)
		closeErr = s.eng.Close()
	})
	return closeErr
}
