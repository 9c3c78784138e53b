package model

import (
	"sort"
	"strings"
)

// memberID indexes the tree's member arena. 0 means "no member".
type memberID uint32

// attachment holds a member's place in the tree. Parent links are IDs
// resolved through the arena, never back-pointers, so the tree forms no
// reference cycles. Scope paths and their event keys are computed once
// here, at attach time.
type attachment struct {
	tree   *Tree
	id     memberID
	parent memberID
	name   string

	// segs is the path from the root, path its dotted form.
	segs []string
	path string

	// suffixes[i] is the dotted path from the ancestor at depth i down to
	// this member; keys[i] is the matching qualified event key.
	suffixes []string
	keys     []EventKey

	em emitter
}

// keyAt returns the qualified event key for attribute key attrKey as seen
// from the ancestor at depth d. d equal to the member's own depth yields
// the member-local key ("change:<attrKey>").
func (a *attachment) keyAt(d int, attrKey string) EventKey {
	if d == len(a.segs) {
		return changeKeyFor("", attrKey)
	}
	return changeKeyFor(a.suffixes[d], attrKey)
}

// Tree owns the member arena and runs dispatch passes. It must be driven
// from a single goroutine; see the package documentation.
type Tree struct {
	arena []Member
	root  *Node

	// dispatching is set while a pass is emitting. Mutations started by
	// listeners are queued; listener table edits are deferred.
	dispatching bool
	queued      []func(cs *changeSet) error
	deferred    []func()

	nextHandle Handle
	errObs     ErrorObserver
}

// NewTree creates an empty tree with an unnamed root node.
func NewTree() *Tree {
	t := &Tree{nextHandle: 1}
	root := &Node{children: make(map[string]memberID)}
	root.att.tree = t
	root.att.id = t.register(root)
	root.attrs = &AttributeSet{node: root, entries: make(map[string]any)}
	t.root = root
	return t
}

// Root returns the root node: the scope the owning client object listens
// on for fully qualified events.
func (t *Tree) Root() *Node {
	return t.root
}

// SetErrorObserver sets this tree's error observer. A nil observer falls
// back to the process-wide one.
func (t *Tree) SetErrorObserver(o ErrorObserver) {
	t.errObs = o
}

func (t *Tree) observer() ErrorObserver {
	if t.errObs != nil {
		return t.errObs
	}
	return defaultErrorObserver()
}

func (t *Tree) register(m Member) memberID {
	t.arena = append(t.arena, m)
	return memberID(len(t.arena))
}

func (t *Tree) member(id memberID) Member {
	if id == 0 || int(id) > len(t.arena) {
		return nil
	}
	return t.arena[id-1]
}

// attachChild wires a new member under parent with the given name and
// precomputes its path, suffixes, and event keys.
func (t *Tree) attachChild(m Member, parent *Node, name string) {
	a := m.attach()
	a.tree = t
	a.parent = parent.att.id
	a.name = name

	a.segs = make([]string, 0, len(parent.att.segs)+1)
	a.segs = append(a.segs, parent.att.segs...)
	a.segs = append(a.segs, name)
	a.path = strings.Join(a.segs, ".")

	a.suffixes = make([]string, len(a.segs))
	a.keys = make([]EventKey, len(a.segs))
	for i := range a.segs {
		a.suffixes[i] = strings.Join(a.segs[i:], ".")
		a.keys[i] = changeKeyFor(a.suffixes[i], "")
	}

	a.id = t.register(m)
	parent.children[name] = a.id
	parent.order = append(parent.order, name)
}

// addListener registers a listener on a member, deferring if a pass is
// emitting.
func (t *Tree) addListener(a *attachment, key EventKey, fn Listener) Handle {
	h := t.nextHandle
	t.nextHandle++
	op := func() { a.em.add(key, h, fn) }
	if t.dispatching {
		t.deferred = append(t.deferred, op)
	} else {
		op()
	}
	return h
}

// removeListener removes a listener from a member, deferring if a pass is
// emitting.
func (t *Tree) removeListener(a *attachment, h Handle) {
	op := func() { a.em.remove(h) }
	if t.dispatching {
		t.deferred = append(t.deferred, op)
	} else {
		op()
	}
}

// changeRec is one changed leaf key collected during a pass.
type changeRec struct {
	leaf  Member
	key   string
	value any
	op    ChangeOp
}

// changeSet is the per-pass pending changed-paths accumulator. It is
// drained and discarded at the end of each external mutation call.
type changeSet struct {
	recs  []changeRec
	index map[string]int
}

func newChangeSet() *changeSet {
	return &changeSet{index: make(map[string]int)}
}

// record adds a changed leaf key, coalescing repeats: a key touched twice
// within one pass keeps its first position and latest value.
func (cs *changeSet) record(leaf Member, key string, value any, op ChangeOp) {
	dedupe := leaf.Path() + "\x00" + key
	if i, ok := cs.index[dedupe]; ok {
		cs.recs[i].value = value
		cs.recs[i].op = op
		return
	}
	cs.index[dedupe] = len(cs.recs)
	cs.recs = append(cs.recs, changeRec{leaf: leaf, key: key, value: value, op: op})
}

// mutate runs one external mutation as a dispatch pass: collect, then
// emit. If called from inside a listener, the mutation is queued and runs
// as a new pass once the current one drains; its error, having no caller
// to return to, goes to the error observer.
//
// The mutation's own error is returned alongside whatever changes it did
// apply (a collection replace with some malformed entries still applies
// and announces the valid ones).
func (t *Tree) mutate(fn func(cs *changeSet) error) error {
	if t.dispatching {
		t.queued = append(t.queued, fn)
		return nil
	}

	cs := newChangeSet()
	err := fn(cs)

	t.dispatching = true
	t.emit(cs)
	for len(t.queued) > 0 {
		qfn := t.queued[0]
		t.queued = t.queued[1:]
		qcs := newChangeSet()
		if qerr := qfn(qcs); qerr != nil {
			t.observer().MutationFailed(qerr)
		}
		t.emit(qcs)
	}
	t.dispatching = false

	for _, op := range t.deferred {
		op()
	}
	t.deferred = nil

	return err
}

// emit runs the emit-local and bubble phases for one collected pass. A
// pass with no changes emits nothing at any level.
func (t *Tree) emit(cs *changeSet) {
	if len(cs.recs) == 0 {
		return
	}

	// Leaves in first-changed order, with their pass records.
	var leaves []Member
	leafRecs := make(map[Member][]changeRec)
	for _, rec := range cs.recs {
		if _, seen := leafRecs[rec.leaf]; !seen {
			leaves = append(leaves, rec.leaf)
		}
		leafRecs[rec.leaf] = append(leafRecs[rec.leaf], rec)
	}

	// Ancestor chains, leaf-exclusive, child-to-root order.
	chains := make(map[Member][]*Node)
	for _, leaf := range leaves {
		chains[leaf] = t.ancestorChain(leaf)
	}

	// A scope can be both a changed leaf (its own attributes) and an
	// ancestor of another changed leaf in the same pass; its generic
	// change still fires only once.
	genericFired := make(map[Member]bool)

	// Emit-local: each leaf fires its named events once per distinct key,
	// then its generic change once, before any ancestor hears of it.
	for _, leaf := range leaves {
		a := leaf.attach()
		own := len(a.segs)
		for _, rec := range leafRecs[leaf] {
			a.em.fire(t, a.keyAt(own, rec.key), a.path, leafChange(rec))
		}
		genericFired[leaf] = true
		a.em.fire(t, KeyChange, a.path, Change{Source: leaf, Path: a.path, Op: OpNone})
	}

	// Bubble: ancestors strictly bottom-up. Each fires every distinct
	// qualified suffix once, then its generic change exactly once.
	for _, anc := range t.orderAncestors(chains, leaves) {
		t.emitAtAncestor(anc, cs, chains, genericFired)
	}
}

// ancestorChain returns the leaf's strict ancestors from parent up to the
// root.
func (t *Tree) ancestorChain(leaf Member) []*Node {
	var chain []*Node
	id := leaf.attach().parent
	for id != 0 {
		node := t.member(id).(*Node)
		chain = append(chain, node)
		id = node.att.parent
	}
	return chain
}

// orderAncestors returns every distinct ancestor of the changed leaves,
// deepest first, ties broken by first appearance in the pass. Bottom-up
// order guarantees a node always fires before its own parent.
func (t *Tree) orderAncestors(chains map[Member][]*Node, leaves []Member) []*Node {
	var ancestors []*Node
	seen := make(map[*Node]bool)
	for _, leaf := range leaves {
		for _, anc := range chains[leaf] {
			if !seen[anc] {
				seen[anc] = true
				ancestors = append(ancestors, anc)
			}
		}
	}
	sort.SliceStable(ancestors, func(i, j int) bool {
		return len(ancestors[i].att.segs) > len(ancestors[j].att.segs)
	})
	return ancestors
}

// emitAtAncestor fires one ancestor's share of the pass: key-qualified
// suffixes in changed order, then scope-qualified suffixes (longest
// first), then the single generic change.
func (t *Tree) emitAtAncestor(anc *Node, cs *changeSet, chains map[Member][]*Node, genericFired map[Member]bool) {
	d := len(anc.att.segs)
	fired := make(map[EventKey]bool)

	under := func(leaf Member) bool {
		for _, a := range chains[leaf] {
			if a == anc {
				return true
			}
		}
		return false
	}

	for _, rec := range cs.recs {
		if !under(rec.leaf) {
			continue
		}
		key := rec.leaf.attach().keyAt(d, rec.key)
		if fired[key] {
			continue
		}
		fired[key] = true
		anc.att.em.fire(t, key, anc.att.path, leafChange(rec))
	}

	// Scope suffixes are exactly the members on each chain strictly below
	// this ancestor, leaf included; their keys were precomputed at attach
	// time.
	var scopes []Member
	scopeSeen := make(map[Member]bool)
	for _, rec := range cs.recs {
		if !under(rec.leaf) {
			continue
		}
		if !scopeSeen[rec.leaf] {
			scopeSeen[rec.leaf] = true
			scopes = append(scopes, rec.leaf)
		}
		for _, mid := range chains[rec.leaf] {
			if mid == anc {
				break
			}
			if !scopeSeen[mid] {
				scopeSeen[mid] = true
				scopes = append(scopes, Member(mid))
			}
		}
	}
	sort.SliceStable(scopes, func(i, j int) bool {
		return len(scopes[i].segments()) > len(scopes[j].segments())
	})
	for _, scope := range scopes {
		sa := scope.attach()
		key := sa.keys[d]
		if fired[key] {
			continue
		}
		fired[key] = true
		anc.att.em.fire(t, key, anc.att.path, Change{Source: scope, Path: sa.path, Op: OpNone})
	}

	if !genericFired[anc] {
		genericFired[anc] = true
		anc.att.em.fire(t, KeyChange, anc.att.path, Change{Source: anc, Path: anc.att.path, Op: OpNone})
	}
}

// leafChange builds the payload for a key-qualified event.
func leafChange(rec changeRec) Change {
	return Change{
		Source: rec.leaf,
		Path:   joinPath(rec.leaf.Path(), rec.key),
		Key:    rec.key,
		Value:  rec.value,
		Op:     rec.op,
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
