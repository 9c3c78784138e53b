package model

import "reflect"

// DataType constrains the values an attribute accepts.
type DataType uint8

const (
	// DataTypeAny accepts any value.
	DataTypeAny DataType = iota

	// DataTypeBool accepts booleans.
	DataTypeBool

	// DataTypeNumber accepts any integer or float.
	DataTypeNumber

	// DataTypeString accepts strings.
	DataTypeString

	// DataTypeObject accepts string-keyed maps.
	DataTypeObject

	// DataTypeArray accepts slices.
	DataTypeArray
)

// String returns the data type name.
func (d DataType) String() string {
	names := []string{"any", "bool", "number", "string", "object", "array"}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// Schema maps attribute keys to the type they must hold. Keys absent from
// the schema are unconstrained.
type Schema map[string]DataType

// validate checks value against the schema entry for key, if any.
func (s Schema) validate(key string, value any) error {
	if s == nil || value == nil {
		return nil
	}
	dt, ok := s[key]
	if !ok || dt == DataTypeAny {
		return nil
	}

	switch dt {
	case DataTypeBool:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Key: key, Value: value, Reason: "expected bool"}
		}
	case DataTypeNumber:
		if !isNumeric(value) {
			return &ValidationError{Key: key, Value: value, Reason: "expected number"}
		}
	case DataTypeString:
		if _, ok := value.(string); !ok {
			return &ValidationError{Key: key, Value: value, Reason: "expected string"}
		}
	case DataTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return &ValidationError{Key: key, Value: value, Reason: "expected object"}
		}
	case DataTypeArray:
		if reflect.ValueOf(value).Kind() != reflect.Slice {
			return &ValidationError{Key: key, Value: value, Reason: "expected array"}
		}
	}
	return nil
}

// valuesEqual reports whether two attribute values are equal. "Changed"
// means structurally unequal: scalars compare by value with numeric types
// normalized (a snapshot decoded from JSON carries float64 where one
// decoded from CBOR carries uint64), and structured values compare deeply.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if af, aok := toFloat64(a); aok {
		bf, bok := toFloat64(b)
		return bok && af == bf
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	return reflect.DeepEqual(a, b)
}

// recordsEqual reports whether two records hold the same fields with
// structurally equal values.
func recordsEqual(a, b Record) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

func isNumeric(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
