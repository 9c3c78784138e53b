package model

import (
	"errors"
	"fmt"
)

// RecordKeyField is the field every collection record must carry. Its
// value is the record's identity within the collection.
const RecordKeyField = "key"

// Record is one keyed entry in an EntryCollection.
type Record map[string]any

// EntryCollection is an ordered list of records keyed by their identity
// field. Replacement diffs by identity, never by position: a record that
// moves within the list without changing is not a change, and a record
// replaced by a different identity at the same position is a removal
// plus an addition.
type EntryCollection struct {
	att   attachment
	items []Record
	index map[string]int
}

// Name returns the collection's path segment.
func (c *EntryCollection) Name() string {
	return c.att.name
}

// Path returns the collection's dotted path from the root.
func (c *EntryCollection) Path() string {
	return c.att.path
}

// Len returns the number of records.
func (c *EntryCollection) Len() int {
	return len(c.items)
}

// Get returns a copy of the record with the given identity key.
func (c *EntryCollection) Get(key string) (Record, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return cloneRecord(c.items[i]), true
}

// Keys returns the record identity keys in list order.
func (c *EntryCollection) Keys() []string {
	keys := make([]string, len(c.items))
	for i, rec := range c.items {
		keys[i], _ = recordKey(rec)
	}
	return keys
}

// Records returns a copy of all records in list order.
func (c *EntryCollection) Records() []Record {
	out := make([]Record, len(c.items))
	for i, rec := range c.items {
		out[i] = cloneRecord(rec)
	}
	return out
}

// On registers a listener on this collection's scope.
func (c *EntryCollection) On(key EventKey, fn Listener) Handle {
	return c.att.tree.addListener(&c.att, key, fn)
}

// Off removes a listener registered on this collection's scope.
func (c *EntryCollection) Off(h Handle) {
	c.att.tree.removeListener(&c.att, h)
}

// ReplaceAll swaps the whole record list in one dispatch pass, diffing by
// identity key: new keys fire adds, changed records fire updates, keys no
// longer present fire removals, and unchanged records fire nothing. The
// collection bubbles one generic change for the whole call.
//
// A record without a usable identity key yields a *MalformedEntryError
// and is skipped; a duplicated key keeps its first occurrence. The valid
// rest of the batch is applied normally and the per-entry errors come
// back joined.
func (c *EntryCollection) ReplaceAll(records []Record) error {
	return c.att.tree.mutate(func(cs *changeSet) error {
		return c.replaceAllInto(cs, records)
	})
}

// Upsert adds or updates one record in its own dispatch pass. Upserting a
// record structurally equal to the stored one is a silent no-op.
func (c *EntryCollection) Upsert(rec Record) error {
	return c.att.tree.mutate(func(cs *changeSet) error {
		return c.upsertInto(cs, rec)
	})
}

// RemoveByKey deletes the record with the given identity key in its own
// dispatch pass. Removing an absent key is a silent no-op.
func (c *EntryCollection) RemoveByKey(key string) error {
	return c.att.tree.mutate(func(cs *changeSet) error {
		c.removeInto(cs, key)
		return nil
	})
}

func (c *EntryCollection) replaceAllInto(cs *changeSet, records []Record) error {
	var errs []error

	items := make([]Record, 0, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		if rec == nil {
			errs = append(errs, &MalformedEntryError{Index: i, Reason: "not an object"})
			continue
		}
		key, ok := recordKey(rec)
		if !ok {
			errs = append(errs, &MalformedEntryError{Index: i, Reason: fmt.Sprintf("missing or non-string %q field", RecordKeyField)})
			continue
		}
		if _, dup := index[key]; dup {
			errs = append(errs, &MalformedEntryError{Index: i, Reason: fmt.Sprintf("duplicate key %q", key)})
			continue
		}
		index[key] = len(items)
		items = append(items, cloneRecord(rec))
	}

	for _, rec := range items {
		key, _ := recordKey(rec)
		i, had := c.index[key]
		switch {
		case !had:
			cs.record(c, key, cloneRecord(rec), OpAdd)
		case !recordsEqual(c.items[i], rec):
			cs.record(c, key, cloneRecord(rec), OpUpdate)
		}
	}
	for _, old := range c.items {
		key, _ := recordKey(old)
		if _, kept := index[key]; !kept {
			cs.record(c, key, nil, OpRemove)
		}
	}

	c.items = items
	c.index = index
	return errors.Join(errs...)
}

func (c *EntryCollection) upsertInto(cs *changeSet, rec Record) error {
	key, ok := recordKey(rec)
	if !ok {
		return fmt.Errorf("%w: missing or non-string %q field", ErrMalformedEntry, RecordKeyField)
	}
	if i, had := c.index[key]; had {
		if recordsEqual(c.items[i], rec) {
			return nil
		}
		c.items[i] = cloneRecord(rec)
		cs.record(c, key, cloneRecord(rec), OpUpdate)
		return nil
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, cloneRecord(rec))
	cs.record(c, key, cloneRecord(rec), OpAdd)
	return nil
}

func (c *EntryCollection) removeInto(cs *changeSet, key string) {
	i, ok := c.index[key]
	if !ok {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, key)
	for k, j := range c.index {
		if j > i {
			c.index[k] = j - 1
		}
	}
	cs.record(c, key, nil, OpRemove)
}

func (c *EntryCollection) segments() []string {
	return c.att.segs
}

func (c *EntryCollection) attach() *attachment {
	return &c.att
}

// recordKey extracts a record's identity key.
func recordKey(rec Record) (string, bool) {
	key, ok := rec[RecordKeyField].(string)
	return key, ok && key != ""
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// recordsFrom coerces a decoded snapshot value into a record list. Items
// that are not objects come back as nil records so their positions still
// produce per-entry errors downstream.
func recordsFrom(v any) ([]Record, error) {
	switch list := v.(type) {
	case []Record:
		return list, nil
	case []map[string]any:
		records := make([]Record, len(list))
		for i, m := range list {
			records[i] = Record(m)
		}
		return records, nil
	case []any:
		records := make([]Record, len(list))
		for i, item := range list {
			if m, ok := item.(map[string]any); ok {
				records[i] = Record(m)
			}
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: expected array, got %T", ErrBadSnapshot, v)
	}
}
