// Package profile builds state trees from declarative YAML profiles.
//
// A profile declares the tree shape once: typed attribute guards per
// node, entry collections by name, and nested child nodes. Building a
// profile yields a live model.Tree ready for snapshots; the standard
// device shape ships as code in pkg/device, profiles cover everything
// custom.
package profile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wdm-protocol/wdm-go/pkg/model"
)

// Profile errors.
var (
	ErrUnknownType = errors.New("unknown attribute type")
)

// Profile is a parsed tree declaration.
type Profile struct {
	// Version is the profile format version.
	Version int `yaml:"version"`

	// Name labels the profile.
	Name string `yaml:"name"`

	// Root declares the tree below the root node.
	Root NodeSpec `yaml:"root"`
}

// NodeSpec declares one node: its typed attribute guards, its entry
// collections, and its child nodes.
type NodeSpec struct {
	Attributes  map[string]string   `yaml:"attributes"`
	Collections []string            `yaml:"collections"`
	Nodes       map[string]NodeSpec `yaml:"nodes"`
}

// Parse parses a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if err := p.Root.check(""); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses a YAML profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Build constructs a live tree shaped by the profile.
func (p *Profile) Build() (*model.Tree, error) {
	tree := model.NewTree()
	if err := p.Root.build(tree.Root()); err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *NodeSpec) check(path string) error {
	for key, typeName := range s.Attributes {
		if _, err := dataType(typeName); err != nil {
			return fmt.Errorf("%s%s: %w", prefix(path), key, err)
		}
	}
	for name, child := range s.Nodes {
		if err := child.check(prefix(path) + name); err != nil {
			return err
		}
	}
	return nil
}

func (s *NodeSpec) build(node *model.Node) error {
	if len(s.Attributes) > 0 {
		schema := make(model.Schema, len(s.Attributes))
		for key, typeName := range s.Attributes {
			dt, err := dataType(typeName)
			if err != nil {
				return fmt.Errorf("%s%s: %w", prefix(node.Path()), key, err)
			}
			schema[key] = dt
		}
		node.Attributes().SetSchema(schema)
	}

	for _, name := range s.Collections {
		if _, err := node.AddCollection(name); err != nil {
			return fmt.Errorf("%s%s: %w", prefix(node.Path()), name, err)
		}
	}

	for name, childSpec := range s.Nodes {
		child, err := node.AddChild(name)
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix(node.Path()), name, err)
		}
		if err := childSpec.build(child); err != nil {
			return err
		}
	}
	return nil
}

func dataType(name string) (model.DataType, error) {
	switch name {
	case "", "any":
		return model.DataTypeAny, nil
	case "bool":
		return model.DataTypeBool, nil
	case "number":
		return model.DataTypeNumber, nil
	case "string":
		return model.DataTypeString, nil
	case "object":
		return model.DataTypeObject, nil
	case "array":
		return model.DataTypeArray, nil
	default:
		return model.DataTypeAny, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

func prefix(path string) string {
	if path == "" {
		return ""
	}
	return path + "."
}
