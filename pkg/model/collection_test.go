package model

import (
	"errors"
	"testing"
)

func newCollection(t *testing.T) (*Tree, *EntryCollection) {
	t.Helper()
	tree := NewTree()
	device, err := tree.Root().AddChild("device")
	if err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	coll, err := device.AddCollection("developer")
	if err != nil {
		t.Fatalf("AddCollection failed: %v", err)
	}
	return tree, coll
}

func TestCollectionReplaceAll(t *testing.T) {
	_, coll := newCollection(t)
	seed := []Record{
		{"key": "alpha", "val": "1"},
		{"key": "beta", "val": "2"},
		{"key": "gamma", "val": "3"},
	}
	if err := coll.ReplaceAll(seed); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if coll.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", coll.Len())
	}

	var changes []Change
	for _, key := range []string{"alpha", "beta", "gamma", "delta"} {
		coll.On(ChangeKey(key), func(ch Change) { changes = append(changes, ch) })
	}
	generic := 0
	coll.On(KeyChange, func(Change) { generic++ })

	// alpha unchanged, beta updated, gamma dropped, delta new.
	next := []Record{
		{"key": "delta", "val": "4"},
		{"key": "beta", "val": "22"},
		{"key": "alpha", "val": "1"},
	}
	if err := coll.ReplaceAll(next); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	ops := make(map[string]ChangeOp)
	for _, ch := range changes {
		ops[ch.Key] = ch.Op
	}
	if _, fired := ops["alpha"]; fired {
		t.Error("unchanged record must not fire even though it moved position")
	}
	if ops["beta"] != OpUpdate {
		t.Errorf("expected update for beta, got %v", ops["beta"])
	}
	if ops["gamma"] != OpRemove {
		t.Errorf("expected remove for gamma, got %v", ops["gamma"])
	}
	if ops["delta"] != OpAdd {
		t.Errorf("expected add for delta, got %v", ops["delta"])
	}
	if generic != 1 {
		t.Errorf("expected exactly one generic change, got %d", generic)
	}

	keys := coll.Keys()
	want := []string{"delta", "beta", "alpha"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("expected list order %v, got %v", want, keys)
			break
		}
	}
}

func TestCollectionReorderIsSilent(t *testing.T) {
	_, coll := newCollection(t)
	_ = coll.ReplaceAll([]Record{
		{"key": "a", "val": "1"},
		{"key": "b", "val": "2"},
	})

	calls := 0
	coll.On(KeyChange, func(Change) { calls++ })

	// Same identities and values, reversed order: no change.
	if err := coll.ReplaceAll([]Record{
		{"key": "b", "val": "2"},
		{"key": "a", "val": "1"},
	}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected pure reorder to emit nothing, got %d events", calls)
	}
}

func TestCollectionMalformedEntries(t *testing.T) {
	_, coll := newCollection(t)

	err := coll.ReplaceAll([]Record{
		{"key": "good", "val": "1"},
		{"val": "no identity"},
		{"key": "good", "val": "duplicate"},
		{"key": "also-good", "val": "2"},
	})
	if err == nil {
		t.Fatal("expected per-entry errors")
	}
	if !errors.Is(err, ErrMalformedEntry) {
		t.Errorf("expected ErrMalformedEntry, got %v", err)
	}

	var me *MalformedEntryError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedEntryError in chain, got %v", err)
	}

	// The valid entries still landed; the duplicate kept its first value.
	if coll.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", coll.Len())
	}
	rec, ok := coll.Get("good")
	if !ok || rec["val"] != "1" {
		t.Errorf("expected first occurrence of 'good' to win, got %v", rec)
	}
	if _, ok := coll.Get("also-good"); !ok {
		t.Error("expected valid entry after malformed ones to be applied")
	}
}

func TestCollectionUpsert(t *testing.T) {
	_, coll := newCollection(t)

	t.Run("Add", func(t *testing.T) {
		var got Change
		h := coll.On(ChangeKey("x"), func(ch Change) { got = ch })
		defer coll.Off(h)

		if err := coll.Upsert(Record{"key": "x", "val": "1"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if got.Op != OpAdd {
			t.Errorf("expected add, got %v", got.Op)
		}
		rec, ok := got.Value.(Record)
		if !ok || rec["val"] != "1" {
			t.Errorf("expected full record payload, got %v", got.Value)
		}
	})

	t.Run("Update", func(t *testing.T) {
		var got Change
		h := coll.On(ChangeKey("x"), func(ch Change) { got = ch })
		defer coll.Off(h)

		if err := coll.Upsert(Record{"key": "x", "val": "2"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if got.Op != OpUpdate {
			t.Errorf("expected update, got %v", got.Op)
		}
	})

	t.Run("EqualIsNoOp", func(t *testing.T) {
		calls := 0
		h := coll.On(KeyChange, func(Change) { calls++ })
		defer coll.Off(h)

		if err := coll.Upsert(Record{"key": "x", "val": "2"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no events for equal upsert, got %d", calls)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		err := coll.Upsert(Record{"val": "orphan"})
		if !errors.Is(err, ErrMalformedEntry) {
			t.Errorf("expected ErrMalformedEntry, got %v", err)
		}
	})
}

func TestCollectionRemoveByKey(t *testing.T) {
	_, coll := newCollection(t)
	_ = coll.ReplaceAll([]Record{
		{"key": "a", "val": "1"},
		{"key": "b", "val": "2"},
		{"key": "c", "val": "3"},
	})

	var got Change
	coll.On(ChangeKey("b"), func(ch Change) { got = ch })

	if err := coll.RemoveByKey("b"); err != nil {
		t.Fatalf("RemoveByKey failed: %v", err)
	}
	if got.Op != OpRemove || got.Value != nil {
		t.Errorf("expected removal with nil value, got op=%v value=%v", got.Op, got.Value)
	}

	keys := coll.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("expected [a c] after removal, got %v", keys)
	}
	if _, ok := coll.Get("c"); !ok {
		t.Error("expected lookup of shifted record to still work")
	}

	calls := 0
	coll.On(KeyChange, func(Change) { calls++ })
	if err := coll.RemoveByKey("never"); err != nil {
		t.Fatalf("RemoveByKey failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no events for absent-key removal, got %d", calls)
	}
}

func TestCollectionGetReturnsCopy(t *testing.T) {
	_, coll := newCollection(t)
	_ = coll.Upsert(Record{"key": "a", "val": "1"})

	rec, _ := coll.Get("a")
	rec["val"] = "mutated"
	again, _ := coll.Get("a")
	if again["val"] != "1" {
		t.Error("Get must return a copy")
	}
}
