package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a decoded device state document: nested string-keyed
// objects for nodes, arrays of objects for entry collections, scalars
// for attributes.
type Snapshot = map[string]any

// encMode is the CBOR encoder mode for snapshots.
// Configured for deterministic encoding.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for snapshots.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // last wins
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// EncodeJSON encodes a snapshot to JSON bytes.
func EncodeJSON(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeJSON decodes JSON bytes into a snapshot.
func DecodeJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// DecodeJSONFrom decodes one snapshot from r.
func DecodeJSONFrom(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// EncodeCBOR encodes a snapshot to deterministic CBOR bytes.
func EncodeCBOR(s Snapshot) ([]byte, error) {
	return encMode.Marshal(s)
}

// DecodeCBOR decodes CBOR bytes into a snapshot. Map keys become
// strings and nested containers are normalized to the same shapes JSON
// decoding produces, so snapshots from either transport feed the model
// identically.
func DecodeCBOR(data []byte) (Snapshot, error) {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	s, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to decode snapshot: top level is %T, expected map", raw)
	}
	return s, nil
}

// normalize rewrites CBOR container types in place of their JSON
// equivalents: map[any]any becomes map[string]any (non-string keys are
// stringified), and slices are normalized element-wise. Scalars pass
// through; numeric representation differences are the model's concern.
func normalize(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

// Clone deep-copies a snapshot through the canonical CBOR encoding.
func Clone(s Snapshot) (Snapshot, error) {
	data, err := EncodeCBOR(s)
	if err != nil {
		return nil, err
	}
	return DecodeCBOR(data)
}

// Equal reports whether two snapshots encode to the same canonical
// bytes. Deterministic key ordering makes the byte comparison exact.
func Equal(a, b Snapshot) (bool, error) {
	ab, err := EncodeCBOR(a)
	if err != nil {
		return false, err
	}
	bb, err := EncodeCBOR(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ab, bb), nil
}
