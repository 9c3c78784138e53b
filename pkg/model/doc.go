// Package model implements the reactive device state tree.
//
// # State Hierarchy
//
// WDM device state is a tree of named scopes. Each scope is a Node that
// carries a flat AttributeSet of key/value attributes and any number of
// named children, which are either further Nodes or EntryCollections
// (identity-keyed record sequences, e.g. a device's feature sets):
//
//	Tree root (the client object)
//	└── device
//	    ├── url, webSocketUrl, ...        (attributes)
//	    └── features
//	        ├── developer                 (entry collection)
//	        ├── entitlement               (entry collection)
//	        └── user                      (entry collection)
//
// # Change Notification
//
// Every mutation runs as one dispatch pass, whether it is a single Set
// or a whole-subtree Replace with a fresh registration snapshot. The pass
// first applies the mutation, accumulating the set of changed leaf paths,
// and only then notifies listeners:
//
//  1. Each changed leaf fires its named event ("change:<key>") once per
//     distinct changed key, then its generic "change" once.
//  2. Ancestors are notified bottom-up. Each ancestor fires a qualified
//     event ("change:<dotted.path.suffix>") once per distinct changed
//     path suffix below it, then its own generic "change" exactly once
//     per pass, no matter how many descendants changed.
//
// A pass that changes nothing emits nothing. Replacing state with a
// structurally identical snapshot is a silent no-op.
//
// Event identifiers are typed EventKey values computed from path segments.
// Scope-level keys are computed once when a member is attached; only the
// terminal attribute key of a leaf event is appended at dispatch time.
//
// # Ownership and Concurrency
//
// A Tree is owned by the client instance that built it and must be driven
// from a single goroutine. Dispatch is synchronous and cooperative:
// listeners run inline during the pass. A mutation issued from inside a
// listener is queued and runs as a brand-new pass after the current one
// completes; it is never nested. Listener registration and removal are
// safe to call from inside a callback and take effect once the pass ends.
//
// Parent links are member IDs resolved through the tree's arena, so the
// structure holds no reference cycles and tears down with its owner.
package model
