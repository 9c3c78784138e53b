package device

import (
	"fmt"

	"github.com/wdm-protocol/wdm-go/pkg/model"
	"github.com/wdm-protocol/wdm-go/pkg/wire"
)

// Standard feature set names.
const (
	SetDeveloper   = "developer"
	SetEntitlement = "entitlement"
	SetUser        = "user"
)

// Standard device attribute keys.
const (
	AttrURL              = "url"
	AttrWebSocketURL     = "webSocketUrl"
	AttrModificationTime = "modificationTime"
)

// Device is the owning client object for one device state tree. It is
// the root aggregator: every snapshot replace funnels through it as a
// single dispatch pass, and the fully qualified listener surface hangs
// off its tree root.
//
// A Device, like the tree it owns, must be driven from one goroutine.
type Device struct {
	tree     *model.Tree
	node     *model.Node
	features *model.Node
	sets     map[string]*FeatureSet
}

// New builds an empty device tree with the standard shape.
func New() *Device {
	tree := model.NewTree()
	node, err := tree.Root().AddChild("device")
	if err != nil {
		panic(fmt.Sprintf("device: building standard tree: %v", err))
	}
	node.Attributes().SetSchema(model.Schema{
		AttrURL:              model.DataTypeString,
		AttrWebSocketURL:     model.DataTypeString,
		AttrModificationTime: model.DataTypeString,
	})

	features, err := node.AddChild("features")
	if err != nil {
		panic(fmt.Sprintf("device: building standard tree: %v", err))
	}

	d := &Device{
		tree:     tree,
		node:     node,
		features: features,
		sets:     make(map[string]*FeatureSet),
	}
	for _, name := range []string{SetDeveloper, SetEntitlement, SetUser} {
		coll, err := features.AddCollection(name)
		if err != nil {
			panic(fmt.Sprintf("device: building standard tree: %v", err))
		}
		d.sets[name] = &FeatureSet{name: name, coll: coll}
	}
	return d
}

// Tree returns the underlying state tree.
func (d *Device) Tree() *model.Tree {
	return d.tree
}

// Node returns the device node itself.
func (d *Device) Node() *model.Node {
	return d.node
}

// Attributes returns the device's top-level attribute set.
func (d *Device) Attributes() *model.AttributeSet {
	return d.node.Attributes()
}

// URL returns the device's registration URL attribute.
func (d *Device) URL() string {
	v, _ := d.node.Attributes().Get(AttrURL)
	s, _ := v.(string)
	return s
}

// WebSocketURL returns the device's streaming URL attribute.
func (d *Device) WebSocketURL() string {
	v, _ := d.node.Attributes().Get(AttrWebSocketURL)
	s, _ := v.(string)
	return s
}

// FeatureSet returns the named feature set.
func (d *Device) FeatureSet(name string) (*FeatureSet, error) {
	s, ok := d.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: feature set %q", model.ErrUnknownChild, name)
	}
	return s, nil
}

// Developer returns the developer feature set.
func (d *Device) Developer() *FeatureSet {
	return d.sets[SetDeveloper]
}

// Entitlement returns the entitlement feature set.
func (d *Device) Entitlement() *FeatureSet {
	return d.sets[SetEntitlement]
}

// User returns the user feature set.
func (d *Device) User() *FeatureSet {
	return d.sets[SetUser]
}

// Replace applies a fresh registration snapshot in one dispatch pass.
// The snapshot is the device object itself: attribute scalars at the
// top level and a "features" object of record lists.
func (d *Device) Replace(snapshot wire.Snapshot) error {
	return d.node.Replace(snapshot)
}

// Snapshot renders the current device state in the registration
// payload shape, suitable for persistence and later Replace.
func (d *Device) Snapshot() wire.Snapshot {
	features := make(map[string]any, len(d.sets))
	for name, s := range d.sets {
		records := s.coll.Records()
		list := make([]any, len(records))
		for i, rec := range records {
			list[i] = map[string]any(rec)
		}
		features[name] = list
	}

	snapshot := wire.Snapshot(d.node.Attributes().Values())
	snapshot["features"] = features
	return snapshot
}

// On registers a listener on the tree root, where fully qualified keys
// like ChangeKey("device", "features", "developer") resolve.
func (d *Device) On(key model.EventKey, fn model.Listener) model.Handle {
	return d.tree.Root().On(key, fn)
}

// Off removes a root listener.
func (d *Device) Off(h model.Handle) {
	d.tree.Root().Off(h)
}
