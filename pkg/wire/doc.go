// Package wire codecs device state snapshots for transport.
//
// Snapshots travel as JSON over the HTTP API and as CBOR (RFC 8949)
// over the streaming connection. Both decode to the same nested
// map[string]any shape, which pkg/model consumes directly.
//
// # Normalization
//
// CBOR decoding produces map[any]any containers and integer-typed
// numbers where JSON produces map[string]any and float64. DecodeCBOR
// normalizes container shapes so the two transports are
// interchangeable; numeric representation differences are left to the
// model's structural comparison.
//
// # Determinism
//
// CBOR encoding is canonical (sorted keys, definite lengths), so equal
// snapshots encode to equal bytes. Equal and Clone build on that.
package wire
