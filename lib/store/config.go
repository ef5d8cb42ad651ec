package store

import (
	"time"

	rmetrics "github.com/rcrowley/go-metrics"

	"github.com/flaxkv-go/flaxkv/internal/logging"
)

// EngineKind selects the backing ordered-KV engine a store is opened
// against.
type EngineKind string

const (
	EngineMmapBTree EngineKind = "mmap_btree"
	EngineLSM       EngineKind = "lsm"
)

// Config is the full set of options accepted by Open.
type Config struct {
	Path string

	EngineKind EngineKind

	FlushInterval time.Duration
	HighWaterW    int

	// Rebuild truncates any existing database at Path before the store
	// accepts writes.
	Rebuild bool

	// MapSizeHint is forwarded to the engine as an advisory working-set
	// size hint.
	MapSizeHint int

	Logger          logging.Logger
	MetricsRegistry rmetrics.Registry
}

func (c Config) withDefaults() Config {
	if c.EngineKind == "" {
		c.EngineKind = EngineMmapBTree
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 200 * time.Millisecond
	}
	if c.HighWaterW <= 0 {
		c.HighWaterW = 10000
	}
	if c.Logger == nil {
		c.Logger = logging.New(logging.LevelInfo)
	}
	if c.MetricsRegistry == nil {
		c.MetricsRegistry = rmetrics.NewRegistry()
	}
	return c
}
