package model

import "fmt"

// listenerEntry pairs a registered listener with its handle.
type listenerEntry struct {
	h  Handle
	fn Listener
}

// emitter is the per-member listener table.
type emitter struct {
	listeners map[EventKey][]listenerEntry
}

func (e *emitter) add(key EventKey, h Handle, fn Listener) {
	if e.listeners == nil {
		e.listeners = make(map[EventKey][]listenerEntry)
	}
	e.listeners[key] = append(e.listeners[key], listenerEntry{h: h, fn: fn})
}

// remove deletes the listener with the given handle, if present.
func (e *emitter) remove(h Handle) {
	for key, entries := range e.listeners {
		for i, entry := range entries {
			if entry.h == h {
				e.listeners[key] = append(entries[:i], entries[i+1:]...)
				if len(e.listeners[key]) == 0 {
					delete(e.listeners, key)
				}
				return
			}
		}
	}
}

// fire invokes every listener registered for key. A panicking listener is
// reported to the tree's error observer and never prevents the remaining
// listeners from running.
func (e *emitter) fire(t *Tree, key EventKey, scopePath string, ch Change) {
	entries := e.listeners[key]
	if len(entries) == 0 {
		return
	}

	// Listener adds and removes during a pass are deferred, so the slice
	// is stable while we iterate. Copy anyway so a deferred removal
	// applied by a nested drain cannot shift entries under us.
	snapshot := make([]listenerEntry, len(entries))
	copy(snapshot, entries)

	for _, entry := range snapshot {
		invoke(t, key, scopePath, entry.fn, ch)
	}
}

func invoke(t *Tree, key EventKey, scopePath string, fn Listener, ch Change) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("listener panic: %v", r)
			}
			t.observer().ListenerFailed(key, scopePath, err)
		}
	}()
	fn(ch)
}
