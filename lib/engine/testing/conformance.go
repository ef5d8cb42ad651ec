// Package testing provides a shared conformance suite exercised against
// every engine.Engine implementation, in the style of the teacher's
// RunKVDBTests(t, name, factory) table-driven pattern.
package testing

import (
	"bytes"
	"sort"
	"testing"

	"github.com/flaxkv-go/flaxkv/lib/engine"
)

// Factory constructs a fresh, empty engine.Engine rooted at dir for the
// duration of one subtest.
type Factory func(t *testing.T, dir string) engine.Engine

// exactCounter is implemented by engines whose Stat() is precise, used
// to skip exact-count assertions against approximate engines the way
// the teacher's requireFeature skips assertions an implementation does
// not support.
type exactCounter interface {
	SupportsExactCount() bool
}

func requireExactCount(t *testing.T, e engine.Engine) {
	t.Helper()
	if ec, ok := e.(exactCounter); ok && !ec.SupportsExactCount() {
		t.Skip("engine does not support exact counts")
	}
}

// RunEngineTests runs the full conformance suite against the engine
// produced by factory, under the subtest name name.
func RunEngineTests(t *testing.T, name string, factory Factory) {
	t.Run(name+"/GetMissing", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run(name+"/PutGet", func(t *testing.T) { testPutGet(t, factory) })
	t.Run(name+"/DeleteInBatch", func(t *testing.T) { testDeleteInBatch(t, factory) })
	t.Run(name+"/BatchOrdering", func(t *testing.T) { testBatchOrdering(t, factory) })
	t.Run(name+"/Iterate", func(t *testing.T) { testIterate(t, factory) })
	t.Run(name+"/Stat", func(t *testing.T) { testStat(t, factory) })
	t.Run(name+"/DropAll", func(t *testing.T) { testDropAll(t, factory) })
}

func testGetMissing(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	_, found, err := e.Get([]byte("nope"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func testPutGet(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	if err := e.CommitBatch([]engine.Op{{Kind: engine.OpPut, Key: []byte("k"), Value: []byte("v")}}); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}
	v, found, err := e.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("got (%q, %v), want (v, true)", v, found)
	}
	ok, err := e.Contains([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("Contains: %v, %v", ok, err)
	}
}

func testDeleteInBatch(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	must(t, e.CommitBatch([]engine.Op{{Kind: engine.OpPut, Key: []byte("k"), Value: []byte("v")}}))
	must(t, e.CommitBatch([]engine.Op{{Kind: engine.OpDelete, Key: []byte("k")}}))
	_, found, err := e.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected key deleted")
	}
}

func testBatchOrdering(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	must(t, e.CommitBatch([]engine.Op{
		{Kind: engine.OpPut, Key: []byte("k"), Value: []byte("first")},
		{Kind: engine.OpPut, Key: []byte("k"), Value: []byte("second")},
		{Kind: engine.OpDelete, Key: []byte("k")},
		{Kind: engine.OpPut, Key: []byte("k"), Value: []byte("third")},
	}))
	v, found, err := e.Get([]byte("k"))
	if err != nil || !found || !bytes.Equal(v, []byte("third")) {
		t.Fatalf("got (%q, %v, %v), want (third, true, nil)", v, found, err)
	}
}

func testIterate(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	want := []string{"a", "b", "c", "d"}
	ops := make([]engine.Op, len(want))
	for i, k := range want {
		ops[i] = engine.Op{Kind: engine.OpPut, Key: []byte(k), Value: []byte(k + "v")}
	}
	must(t, e.CommitBatch(ops))

	it, err := e.Iterate()
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Close()
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func testStat(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	requireExactCount(t, e)
	must(t, e.CommitBatch([]engine.Op{
		{Kind: engine.OpPut, Key: []byte("a"), Value: []byte("1")},
		{Kind: engine.OpPut, Key: []byte("b"), Value: []byte("2")},
	}))
	st, err := e.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.EntryCount != 2 {
		t.Fatalf("EntryCount = %d, want 2", st.EntryCount)
	}
}

func testDropAll(t *testing.T, factory Factory) {
	e := factory(t, t.TempDir())
	defer e.Close()
	must(t, e.CommitBatch([]engine.Op{{Kind: engine.OpPut, Key: []byte("a"), Value: []byte("1")}}))
	if err := e.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	_, found, err := e.Get([]byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected empty engine after DropAll")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
