package flusher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flaxkv-go/flaxkv/internal/logging"
	"github.com/flaxkv-go/flaxkv/lib/engine/mmapbtree"
	"github.com/flaxkv-go/flaxkv/lib/overlay"
)

func TestFlushNowCommitsOverlay(t *testing.T) {
	dir := t.TempDir()
	eng, err := mmapbtree.Open(mmapbtree.Config{Path: filepath.Join(dir, "flaxkv.bolt")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	ov := overlay.New()
	f := New(ov, eng, Config{FlushInterval: time.Hour}, logging.New(logging.LevelError), nil)
	f.Start()
	defer f.Stop()

	ov.StagePut("k", []byte("v"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.FlushNow(ctx); err != nil {
		t.Fatalf("FlushNow: %v", err)
	}

	if ov.Size() != 0 {
		t.Fatalf("overlay not drained after flush")
	}
	v, found, err := eng.Get([]byte("k"))
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("got (%q, %v, %v), want (v, true, nil)", v, found, err)
	}
}

func TestTimerTriggerFlushesEventually(t *testing.T) {
	dir := t.TempDir()
	eng, err := mmapbtree.Open(mmapbtree.Config{Path: filepath.Join(dir, "flaxkv.bolt")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	ov := overlay.New()
	f := New(ov, eng, Config{FlushInterval: 10 * time.Millisecond}, logging.New(logging.LevelError), nil)
	f.Start()
	defer f.Stop()

	ov.StagePut("k", []byte("v"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ov.Size() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timer trigger never flushed the overlay")
}
