package lsm

import (
	"path/filepath"
	"testing"

	"github.com/flaxkv-go/flaxkv/lib/engine"
	enginetesting "github.com/flaxkv-go/flaxkv/lib/engine/testing"
)

func TestLSMConformance(t *testing.T) {
	enginetesting.RunEngineTests(t, "lsm", func(t *testing.T, dir string) engine.Engine {
		e, err := Open(Config{Path: filepath.Join(dir, "flaxkv-pebble")})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return e
	})
}
