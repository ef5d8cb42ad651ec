// Package mmapbtree implements the engine.Engine contract over
// go.etcd.io/bbolt, an embedded memory-mapped B+tree — the mmap_btree
// reference engine required by the store's engine_kind configuration.
package mmapbtree

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/flaxkv-go/flaxkv/lib/engine"
)

var recordsBucket = []byte("flaxkv_records")

// dbFileName is the fixed name of the bbolt database file inside
// cfg.Path, which (like lsm.Config.Path and the store's meta sidecar)
// names a directory rather than a single file.
const dbFileName = "flaxkv.db"

// Config controls how the underlying bbolt database is opened.
type Config struct {
	Path string
	// MapSizeHint is advisory; bbolt grows its mmap automatically, but
	// InitialMmapSize avoids repeated remaps for a known working set.
	MapSizeHint int
}

// Engine is a bbolt-backed engine.Engine.
type Engine struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database inside the
// directory cfg.Path, with one bucket holding all records.
func Open(cfg Config) (*Engine, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("mmapbtree: mkdir %s: %w", cfg.Path, err)
	}
	opts := &bbolt.Options{}
	if cfg.MapSizeHint > 0 {
		opts.InitialMmapSize = cfg.MapSizeHint
	}
	dbPath := filepath.Join(cfg.Path, dbFileName)
	db, err := bbolt.Open(dbPath, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("mmapbtree: open %s: %w", dbPath, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mmapbtree: create bucket: %w", err)
	}
	return &Engine{db: db}, nil
}

func (e *Engine) Get(key []byte) (value []byte, found bool, err error) {
	err = e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get(key)
		if v != nil {
			found = true
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, found, err
}

func (e *Engine) Contains(key []byte) (bool, error) {
	var found bool
	err := e.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(recordsBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (e *Engine) Iterate() (engine.Iterator, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, err
	}
	c := tx.Bucket(recordsBucket).Cursor()
	return &iterator{tx: tx, cursor: c, started: false}, nil
}

type iterator struct {
	tx      *bbolt.Tx
	cursor  *bbolt.Cursor
	key     []byte
	value   []byte
	started bool
	closed  bool
}

func (it *iterator) Next() bool {
	if it.closed {
		return false
	}
	var k, v []byte
	if !it.started {
		it.started = true
		k, v = it.cursor.First()
	} else {
		k, v = it.cursor.Next()
	}
	if k == nil {
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }
func (it *iterator) Err() error    { return nil }
func (it *iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.tx.Rollback()
}

// CommitBatch applies ops within a single bbolt read-write transaction,
// which is atomic and fsync'd to disk on Commit — satisfying the
// engine contract's atomic-and-durable-on-success requirement without
// any additional bookkeeping.
func (e *Engine) CommitBatch(ops []engine.Op) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		for _, op := range ops {
			switch op.Kind {
			case engine.OpPut:
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			case engine.OpDelete:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Stat reports an exact live-key count: bbolt's bucket statistics track
// KeyN incrementally, so no scan is needed.
func (e *Engine) Stat() (engine.Stat, error) {
	var st engine.Stat
	err := e.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		bs := b.Stats()
		st = engine.Stat{
			EntryCount: int64(bs.KeyN),
			SizeBytes:  tx.Size(),
			Exact:      true,
		}
		return nil
	})
	return st, err
}

func (e *Engine) DropAll() error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(recordsBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
}

// SupportsExactCount reports true: bbolt's Stat() call is exact.
func (e *Engine) SupportsExactCount() bool { return true }

func (e *Engine) Close() error {
	return e.db.Close()
}
