// Package flusher implements the background worker that drains the
// overlay into the engine in atomic batches, on timer, size threshold,
// or demand.
package flusher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	rmetrics "github.com/rcrowley/go-metrics"

	"github.com/flaxkv-go/flaxkv/internal/logging"
	"github.com/flaxkv-go/flaxkv/lib/engine"
	"github.com/flaxkv-go/flaxkv/lib/overlay"
)

// Config controls the flusher's trigger cadence.
type Config struct {
	FlushInterval time.Duration
	HighWater     int
}

type demandReq struct {
	resp chan error
}

// Flusher is the single dedicated background worker per store. It owns
// no state a reader needs directly; readers consult the overlay and
// engine themselves.
type Flusher struct {
	overlay *overlay.Overlay
	engine  engine.Engine
	cfg     Config
	log     logging.Logger

	flushTimer     rmetrics.Timer
	batchSizeHisto rmetrics.Histogram

	demandCh chan demandReq
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	lastErr atomic.Pointer[error]
}

// New constructs a flusher. Start must be called to begin the
// background loop.
func New(ov *overlay.Overlay, eng engine.Engine, cfg Config, log logging.Logger, registry rmetrics.Registry) *Flusher {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 200 * time.Millisecond
	}
	f := &Flusher{
		overlay:  ov,
		engine:   eng,
		cfg:      cfg,
		log:      log,
		demandCh: make(chan demandReq),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	f.flushTimer = rmetrics.NewTimer()
	f.batchSizeHisto = rmetrics.NewHistogram(rmetrics.NewUniformSample(1024))
	if registry != nil {
		_ = registry.Register("flaxkv.flush.duration", f.flushTimer)
		_ = registry.Register("flaxkv.flush.batch_size", f.batchSizeHisto)
	}
	return f
}

// Start launches the background loop. Calling Start twice is a no-op.
func (f *Flusher) Start() {
	if !f.started.CompareAndSwap(false, true) {
		return
	}
	go f.loop()
}

func (f *Flusher) loop() {
	ticker := time.NewTicker(f.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.log.Debugf("flusher: timer trigger")
			f.doFlush()
		case req := <-f.demandCh:
			f.log.Debugf("flusher: demand trigger")
			req.resp <- f.doFlush()
		case <-f.stopCh:
			f.log.Debugf("flusher: shutdown trigger, final drain")
			f.doFlush()
			close(f.doneCh)
			return
		}
	}
}

// doFlush is the flush procedure of §4.4: drain, commit, and on
// failure re-stage with per-key latest-wins.
func (f *Flusher) doFlush() error {
	ops := f.overlay.Drain()
	if len(ops) == 0 {
		return nil
	}
	batch := make([]engine.Op, len(ops))
	for i, op := range ops {
		if op.Delete {
			batch[i] = engine.Op{Kind: engine.OpDelete, Key: []byte(op.Key)}
		} else {
			batch[i] = engine.Op{Kind: engine.OpPut, Key: []byte(op.Key), Value: op.Value}
		}
	}
	start := time.Now()
	err := f.engine.CommitBatch(batch)
	f.flushTimer.UpdateSince(start)
	f.batchSizeHisto.Update(int64(len(batch)))
	if err != nil {
		f.log.Warningf("flush of %d ops failed, re-staging: %v", len(ops), err)
		f.overlay.Restage(ops)
		f.lastErr.Store(&err)
		return err
	}
	return nil
}

// FlushNow requests an immediate flush and blocks until it completes or
// ctx is done. It is used both for the façade's explicit flush_now and
// for the high-water barrier.
func (f *Flusher) FlushNow(ctx context.Context) error {
	req := demandReq{resp: make(chan error, 1)}
	select {
	case f.demandCh <- req:
	case <-f.doneCh:
		return errClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TakeLastError returns and clears the most recently captured flush
// error, or nil if none is pending. The façade surfaces this once to
// the next write that stages a put (Put, Update, or a SetDefault that
// inserts); Get, Contains, Delete, Pop and the iteration calls do not
// consume it.
func (f *Flusher) TakeLastError() error {
	p := f.lastErr.Swap(nil)
	if p == nil {
		return nil
	}
	return *p
}

// HighWaterExceeded reports whether the overlay is at or above the
// configured high-water mark.
func (f *Flusher) HighWaterExceeded() bool {
	if f.cfg.HighWater <= 0 {
		return false
	}
	return f.overlay.Size() >= f.cfg.HighWater
}

// Stop signals shutdown, waits for the final drain+commit to finish,
// and is idempotent.
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
	})
	<-f.doneCh
}

var errClosed = errors.New("flusher: stopped")
