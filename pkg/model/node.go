package model

import (
	"errors"
	"fmt"
	"strings"
)

// Node is a named scope in the state tree. It carries its own
// AttributeSet and named children: further nodes or entry collections.
// Nodes are created once at tree construction and never re-parented, so
// no node can become its own ancestor.
type Node struct {
	att      attachment
	attrs    *AttributeSet
	children map[string]memberID
	order    []string
}

// Name returns the node's path segment. The root's name is empty.
func (n *Node) Name() string {
	return n.att.name
}

// Path returns the node's dotted path from the root.
func (n *Node) Path() string {
	return n.att.path
}

// Attributes returns the node's attribute set.
func (n *Node) Attributes() *AttributeSet {
	return n.attrs
}

// AddChild creates and attaches a child node.
func (n *Node) AddChild(name string) (*Node, error) {
	if err := n.checkName(name); err != nil {
		return nil, err
	}
	child := &Node{children: make(map[string]memberID)}
	n.att.tree.attachChild(child, n, name)
	child.attrs = &AttributeSet{node: child, entries: make(map[string]any)}
	return child, nil
}

// AddCollection creates and attaches a child entry collection.
func (n *Node) AddCollection(name string) (*EntryCollection, error) {
	if err := n.checkName(name); err != nil {
		return nil, err
	}
	coll := &EntryCollection{index: make(map[string]int)}
	n.att.tree.attachChild(coll, n, name)
	return coll, nil
}

func (n *Node) checkName(name string) error {
	if name == "" || strings.ContainsAny(name, ".:") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, exists := n.children[name]; exists {
		return fmt.Errorf("%w: %q", ErrChildExists, name)
	}
	return nil
}

// Child returns the named child node.
func (n *Node) Child(name string) (*Node, error) {
	child, ok := n.att.tree.member(n.children[name]).(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: node %q", ErrUnknownChild, name)
	}
	return child, nil
}

// Collection returns the named child entry collection.
func (n *Node) Collection(name string) (*EntryCollection, error) {
	coll, ok := n.att.tree.member(n.children[name]).(*EntryCollection)
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", ErrUnknownChild, name)
	}
	return coll, nil
}

// ChildNames returns the names of all children in attach order.
func (n *Node) ChildNames() []string {
	names := make([]string, len(n.order))
	copy(names, n.order)
	return names
}

// On registers a listener on this node's scope.
func (n *Node) On(key EventKey, fn Listener) Handle {
	return n.att.tree.addListener(&n.att, key, fn)
}

// Off removes a listener registered on this node's scope.
func (n *Node) Off(h Handle) {
	n.att.tree.removeListener(&n.att, h)
}

// Replace applies a fresh snapshot to this subtree in a single dispatch
// pass. Snapshot keys naming children route into them: child nodes take
// the nested object, collections take the record list. All remaining keys
// become the node's new attribute map, and attributes absent from the
// snapshot are removed. Children the snapshot does not mention keep their
// state.
//
// Shape mismatches and malformed entries are collected and returned after
// the rest of the snapshot has been applied; the pass still coalesces
// correctly for everything valid.
func (n *Node) Replace(snapshot map[string]any) error {
	return n.att.tree.mutate(func(cs *changeSet) error {
		return n.replaceInto(cs, snapshot)
	})
}

func (n *Node) replaceInto(cs *changeSet, snapshot map[string]any) error {
	var errs []error
	attrs := make(map[string]any)

	for key, value := range snapshot {
		id, isChild := n.children[key]
		if !isChild {
			attrs[key] = value
			continue
		}
		switch child := n.att.tree.member(id).(type) {
		case *Node:
			sub, ok := value.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s: expected object, got %T", ErrBadSnapshot, child.Path(), value))
				continue
			}
			if err := child.replaceInto(cs, sub); err != nil {
				errs = append(errs, err)
			}
		case *EntryCollection:
			records, err := recordsFrom(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", child.Path(), err))
				continue
			}
			if err := child.replaceAllInto(cs, records); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", child.Path(), err))
			}
		}
	}

	if err := n.attrs.replaceAllInto(cs, attrs); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *Node) segments() []string {
	return n.att.segs
}

func (n *Node) attach() *attachment {
	return &n.att
}
