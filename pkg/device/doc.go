// Package device assembles the standard device state tree and gives it
// a typed surface.
//
// A Device owns one model.Tree shaped as:
//
//	device                  attributes: url, webSocketUrl, modificationTime
//	└── features
//	    ├── developer       feature records
//	    ├── entitlement     feature records
//	    └── user            feature records
//
// Registration payloads arrive as wire.Snapshot documents and are
// applied with Replace in a single dispatch pass, so a payload touching
// every feature set still produces exactly one generic change per
// scope. Subscriptions against the fully qualified event surface
// (change:device.features.developer and friends) hang off the tree
// root, which Device proxies through On and Off.
package device
