package overlay

import "testing"

func TestStagePutThenDeleteMutualExclusion(t *testing.T) {
	o := New()
	o.StagePut("k", []byte("v"))
	o.StageDelete("k")
	res, _ := o.Lookup("k")
	if res != Tombstoned {
		t.Fatalf("got %v, want Tombstoned", res)
	}
	if o.Size() != 1 {
		t.Fatalf("Size = %d, want 1", o.Size())
	}

	o.StagePut("k", []byte("v2"))
	res, v := o.Lookup("k")
	if res != Hit || string(v) != "v2" {
		t.Fatalf("got (%v, %q), want (Hit, v2)", res, v)
	}
	if o.Size() != 1 {
		t.Fatalf("Size = %d, want 1", o.Size())
	}
}

func TestDrainOrderAndEmpties(t *testing.T) {
	o := New()
	o.StagePut("a", []byte("1"))
	o.StagePut("b", []byte("2"))
	o.StageDelete("a")
	o.StagePut("c", []byte("3"))

	ops := o.Drain()
	want := []struct {
		key    string
		delete bool
	}{
		{"a", true},
		{"b", false},
		{"c", false},
	}
	if len(ops) != len(want) {
		t.Fatalf("got %d ops, want %d", len(ops), len(want))
	}
	for i, w := range want {
		if ops[i].Key != w.key || ops[i].Delete != w.delete {
			t.Fatalf("op[%d] = %+v, want key=%s delete=%v", i, ops[i], w.key, w.delete)
		}
	}
	if o.Size() != 0 {
		t.Fatalf("Size after drain = %d, want 0", o.Size())
	}
}

func TestRestageLatestWins(t *testing.T) {
	o := New()
	o.StagePut("k", []byte("old"))
	ops := o.Drain()

	// A newer mutation lands before the failed batch is restaged.
	o.StagePut("k", []byte("new"))
	o.Restage(ops)

	res, v := o.Lookup("k")
	if res != Hit || string(v) != "new" {
		t.Fatalf("got (%v, %q), want (Hit, new)", res, v)
	}
}

func TestRestageAppliesWhenNoNewerMutation(t *testing.T) {
	o := New()
	o.StagePut("k", []byte("v"))
	ops := o.Drain()

	o.Restage(ops)

	res, v := o.Lookup("k")
	if res != Hit || string(v) != "v" {
		t.Fatalf("got (%v, %q), want (Hit, v)", res, v)
	}
}

func TestSnapshotIsPointInTime(t *testing.T) {
	o := New()
	o.StagePut("a", []byte("1"))
	buf, tomb := o.Snapshot()
	o.StagePut("b", []byte("2"))

	if _, ok := buf["b"]; ok {
		t.Fatalf("snapshot observed a mutation after it was taken")
	}
	if len(buf) != 1 || len(tomb) != 0 {
		t.Fatalf("unexpected snapshot contents: %v %v", buf, tomb)
	}
}
