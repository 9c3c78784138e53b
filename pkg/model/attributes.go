package model

import "sort"

// AttributeSet is the flat key/value state of a node. Its keys surface
// directly under the node's path: attribute "url" on node "device" is
// path "device.url" and fires "change:url" at the node. The key set is
// whatever the last Set/ReplaceAll established; keys are never present
// with an absent value; absence means removed.
type AttributeSet struct {
	node    *Node
	schema  Schema
	entries map[string]any
}

// SetSchema installs typed guards for this set's keys. Existing values
// are not re-validated; guards apply to subsequent mutations.
func (a *AttributeSet) SetSchema(s Schema) {
	a.schema = s
}

// Get returns the value for key.
func (a *AttributeSet) Get(key string) (any, bool) {
	v, ok := a.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (a *AttributeSet) Has(key string) bool {
	_, ok := a.entries[key]
	return ok
}

// Len returns the number of attributes.
func (a *AttributeSet) Len() int {
	return len(a.entries)
}

// Keys returns all keys, sorted.
func (a *AttributeSet) Keys() []string {
	keys := make([]string, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the attribute map.
func (a *AttributeSet) Values() map[string]any {
	out := make(map[string]any, len(a.entries))
	for k, v := range a.entries {
		out[k] = v
	}
	return out
}

// Set updates one attribute in its own dispatch pass. Setting a key to a
// structurally equal value is a silent no-op. Setting nil removes the
// key. A value rejected by the schema returns a *ValidationError and
// applies nothing.
func (a *AttributeSet) Set(key string, value any) error {
	return a.node.att.tree.mutate(func(cs *changeSet) error {
		return a.setInto(cs, key, value)
	})
}

// Remove deletes one attribute in its own dispatch pass. Removing an
// absent key is a silent no-op.
func (a *AttributeSet) Remove(key string) error {
	return a.node.att.tree.mutate(func(cs *changeSet) error {
		return a.setInto(cs, key, nil)
	})
}

// ReplaceAll swaps the entire attribute map in one dispatch pass. The
// symmetric difference against the current entries drives eventing: every
// added, updated, or removed key fires its named event once, and the set
// fires one generic change for the whole call. A schema rejection aborts
// the call before any mutation.
func (a *AttributeSet) ReplaceAll(entries map[string]any) error {
	return a.node.att.tree.mutate(func(cs *changeSet) error {
		return a.replaceAllInto(cs, entries)
	})
}

func (a *AttributeSet) setInto(cs *changeSet, key string, value any) error {
	if value == nil {
		if _, ok := a.entries[key]; !ok {
			return nil
		}
		delete(a.entries, key)
		cs.record(a.node, key, nil, OpRemove)
		return nil
	}

	if err := a.schema.validate(key, value); err != nil {
		return err
	}

	cur, ok := a.entries[key]
	if ok && valuesEqual(cur, value) {
		return nil
	}
	op := OpUpdate
	if !ok {
		op = OpAdd
	}
	a.entries[key] = value
	cs.record(a.node, key, value, op)
	return nil
}

func (a *AttributeSet) replaceAllInto(cs *changeSet, entries map[string]any) error {
	// Validate everything up front so a rejected value leaves the set
	// untouched.
	for key, value := range entries {
		if value == nil {
			continue
		}
		if err := a.schema.validate(key, value); err != nil {
			return err
		}
	}

	// Stable iteration keeps event order deterministic.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := entries[key]
		if value == nil {
			continue // absent and nil both mean "not present"
		}
		cur, ok := a.entries[key]
		switch {
		case !ok:
			a.entries[key] = value
			cs.record(a.node, key, value, OpAdd)
		case !valuesEqual(cur, value):
			a.entries[key] = value
			cs.record(a.node, key, value, OpUpdate)
		}
	}

	for _, key := range a.Keys() {
		if v, ok := entries[key]; !ok || v == nil {
			delete(a.entries, key)
			cs.record(a.node, key, nil, OpRemove)
		}
	}
	return nil
}
