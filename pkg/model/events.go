package model

import "strings"

// EventKey identifies a listener scope. Keys are opaque; construct them
// with KeyChange or ChangeKey rather than assembling strings.
type EventKey string

// KeyChange is the generic change event, fired at every scope a dispatch
// pass touches.
const KeyChange EventKey = "change"

const changePrefix = "change:"

// ChangeKey returns the qualified change key for a dotted path, e.g.
// ChangeKey("device", "features", "developer").
func ChangeKey(segments ...string) EventKey {
	return EventKey(changePrefix + strings.Join(segments, "."))
}

// changeKeyFor builds a qualified key from a precomputed scope suffix and
// a terminal attribute or record key. Either part may be empty.
func changeKeyFor(suffix, key string) EventKey {
	switch {
	case suffix == "":
		return EventKey(changePrefix + key)
	case key == "":
		return EventKey(changePrefix + suffix)
	default:
		return EventKey(changePrefix + suffix + "." + key)
	}
}

// ChangeOp classifies the diff outcome behind a change event.
type ChangeOp uint8

const (
	// OpNone marks coalesced scope events that summarize a pass rather
	// than a single key.
	OpNone ChangeOp = iota

	// OpAdd marks a key or record that did not exist before.
	OpAdd

	// OpUpdate marks a key or record whose value changed.
	OpUpdate

	// OpRemove marks a key or record that no longer exists.
	OpRemove
)

// String returns the operation name.
func (op ChangeOp) String() string {
	names := []string{"none", "add", "update", "remove"}
	if int(op) < len(names) {
		return names[op]
	}
	return "unknown"
}

// Change is the payload delivered to listeners.
type Change struct {
	// Source is the changed Node or EntryCollection for leaf,
	// key-qualified, and scope-qualified events. For generic events it is
	// the scope the event fired on.
	Source Member

	// Path is the full dotted path of the changed key for key-qualified
	// events, or the firing scope's path for coalesced events.
	Path string

	// Key is the changed attribute or record identity key. Empty for
	// generic and scope-qualified events.
	Key string

	// Value is the new value (the full record for collections). Nil on
	// removal.
	Value any

	// Op classifies the change.
	Op ChangeOp
}

// Listener receives change events.
type Listener func(Change)

// Handle identifies a registered listener for later removal.
type Handle uint64

// Member is a subscribable scope in the tree: a *Node or an
// *EntryCollection.
type Member interface {
	// Path returns the member's dotted path from the root. The root
	// itself has the empty path.
	Path() string

	// On registers a listener for an event key and returns its handle.
	// Registration from inside a listener callback is deferred until the
	// current dispatch pass completes.
	On(key EventKey, fn Listener) Handle

	// Off removes a previously registered listener. Removal from inside
	// a listener callback is deferred until the current pass completes;
	// unknown handles are ignored.
	Off(h Handle)

	segments() []string
	attach() *attachment
}
