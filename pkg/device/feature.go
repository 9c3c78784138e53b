package device

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wdm-protocol/wdm-go/pkg/model"
)

// Feature set errors.
var (
	ErrFeatureNotFound  = errors.New("feature not found")
	ErrFeatureImmutable = errors.New("feature is immutable")
)

// Feature is one typed record of a feature set. Val carries the raw
// string form the server sent; Value is its parsed typed form.
type Feature struct {
	Key          string
	Val          string
	Value        any
	Mutable      bool
	Type         string
	LastModified string
}

// FeatureSet is a typed view over one feature collection. All reads and
// writes go through the underlying collection, so mutations made here
// cascade through the tree like any other.
type FeatureSet struct {
	name string
	coll *model.EntryCollection
}

// Name returns the feature set name (developer, entitlement, user).
func (s *FeatureSet) Name() string {
	return s.name
}

// Collection returns the backing entry collection, for direct
// subscription or record-level access.
func (s *FeatureSet) Collection() *model.EntryCollection {
	return s.coll
}

// Len returns the number of features.
func (s *FeatureSet) Len() int {
	return s.coll.Len()
}

// Keys returns the feature keys in list order.
func (s *FeatureSet) Keys() []string {
	return s.coll.Keys()
}

// Get returns the feature with the given key.
func (s *FeatureSet) Get(key string) (Feature, error) {
	rec, ok := s.coll.Get(key)
	if !ok {
		return Feature{}, fmt.Errorf("%w: %s.%s", ErrFeatureNotFound, s.name, key)
	}
	return featureFromRecord(rec), nil
}

// Value returns the feature's parsed typed value.
func (s *FeatureSet) Value(key string) (any, bool) {
	rec, ok := s.coll.Get(key)
	if !ok {
		return nil, false
	}
	return featureFromRecord(rec).Value, true
}

// Enabled reports whether the feature exists and its value is true.
func (s *FeatureSet) Enabled(key string) bool {
	v, ok := s.Value(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Set updates a mutable feature's value, storing both raw and typed
// forms and stamping lastModified. Unknown keys and immutable features
// are rejected.
func (s *FeatureSet) Set(key string, value any) error {
	rec, ok := s.coll.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrFeatureNotFound, s.name, key)
	}
	f := featureFromRecord(rec)
	if !f.Mutable {
		return fmt.Errorf("%w: %s.%s", ErrFeatureImmutable, s.name, key)
	}

	f.Val = formatValue(value)
	f.Value = parseValue(f.Val)
	f.LastModified = time.Now().UTC().Format(time.RFC3339)
	return s.coll.Upsert(f.record())
}

// On registers a listener on the feature set's scope.
func (s *FeatureSet) On(key model.EventKey, fn model.Listener) model.Handle {
	return s.coll.On(key, fn)
}

// Off removes a listener from the feature set's scope.
func (s *FeatureSet) Off(h model.Handle) {
	s.coll.Off(h)
}

func featureFromRecord(rec model.Record) Feature {
	var f Feature
	f.Key, _ = rec[model.RecordKeyField].(string)
	f.Val, _ = rec["val"].(string)
	f.Mutable, _ = rec["mutable"].(bool)
	f.Type, _ = rec["type"].(string)
	f.LastModified, _ = rec["lastModified"].(string)

	if v, ok := rec["value"]; ok && v != nil {
		f.Value = v
	} else if f.Val != "" {
		f.Value = parseValue(f.Val)
	}
	return f
}

func (f Feature) record() model.Record {
	rec := model.Record{
		model.RecordKeyField: f.Key,
		"val":                f.Val,
		"value":              f.Value,
		"mutable":            f.Mutable,
	}
	if f.Type != "" {
		rec["type"] = f.Type
	}
	if f.LastModified != "" {
		rec["lastModified"] = f.LastModified
	}
	return rec
}

// parseValue derives the typed form of a raw feature value: booleans,
// then numbers, then the string itself.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
