package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CodecVersion is bumped whenever the on-wire value encoding changes in
// a way that is not backward compatible. It is recorded in the
// per-directory metadata header and checked at open.
const CodecVersion = 1

const metaFileName = "_flaxkv_meta.json"

// meta is the small header written once per database directory,
// recording enough to detect an incompatible rebuild at open time. On-
// disk layout beyond this file is fully delegated to the chosen engine.
type meta struct {
	EngineKind string    `json:"engine_kind"`
	CodecVer   int       `json:"codec_version"`
	CreatedAt  time.Time `json:"created_at"`
}

// loadOrCreateMeta reads the metadata header if present, or creates one
// stamped with the current engine kind and codec version. A mismatched
// engine kind or codec version is fatal: the store refuses to open.
func loadOrCreateMeta(dir string, engineKind EngineKind, rebuild bool) (meta, error) {
	path := filepath.Join(dir, metaFileName)
	if rebuild {
		return writeMeta(path, engineKind)
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeMeta(path, engineKind)
	}
	if err != nil {
		return meta{}, fmt.Errorf("flaxkv: read metadata: %w", err)
	}
	var m meta
	if err := json.Unmarshal(b, &m); err != nil {
		return meta{}, fmt.Errorf("flaxkv: corrupt metadata: %w", err)
	}
	if m.EngineKind != string(engineKind) {
		return meta{}, fmt.Errorf("flaxkv: database at %s was created with engine_kind %q, cannot open as %q", dir, m.EngineKind, engineKind)
	}
	if m.CodecVer != CodecVersion {
		return meta{}, fmt.Errorf("flaxkv: database at %s was created with codec version %d, this build uses %d", dir, m.CodecVer, CodecVersion)
	}
	return m, nil
}

func writeMeta(path string, engineKind EngineKind) (meta, error) {
	m := meta{EngineKind: string(engineKind), CodecVer: CodecVersion, CreatedAt: time.Now()}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return meta{}, err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return meta{}, fmt.Errorf("flaxkv: write metadata: %w", err)
	}
	return m, nil
}
