package mmapbtree

import (
	"path/filepath"
	"testing"

	"github.com/flaxkv-go/flaxkv/lib/engine"
	enginetesting "github.com/flaxkv-go/flaxkv/lib/engine/testing"
)

func TestMmapBtreeConformance(t *testing.T) {
	enginetesting.RunEngineTests(t, "mmapbtree", func(t *testing.T, dir string) engine.Engine {
		e, err := Open(Config{Path: filepath.Join(dir, "flaxkv.bolt")})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return e
	})
}
