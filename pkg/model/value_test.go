package model

import (
	"errors"
	"testing"
)

func TestValuesEqual(t *testing.T) {
	t.Run("NumericNormalization", func(t *testing.T) {
		// JSON decodes numbers as float64, CBOR as uint64/int64. The same
		// snapshot arriving over either must compare equal.
		if !valuesEqual(float64(42), uint64(42)) {
			t.Error("expected float64(42) == uint64(42)")
		}
		if !valuesEqual(int(7), float64(7)) {
			t.Error("expected int(7) == float64(7)")
		}
		if valuesEqual(float64(42), uint64(43)) {
			t.Error("expected float64(42) != uint64(43)")
		}
	})

	t.Run("NumberVsString", func(t *testing.T) {
		if valuesEqual(float64(42), "42") {
			t.Error("expected number != string")
		}
	})

	t.Run("Scalars", func(t *testing.T) {
		if !valuesEqual("a", "a") || valuesEqual("a", "b") {
			t.Error("string comparison wrong")
		}
		if !valuesEqual(true, true) || valuesEqual(true, false) {
			t.Error("bool comparison wrong")
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if !valuesEqual(nil, nil) {
			t.Error("expected nil == nil")
		}
		if valuesEqual(nil, "x") || valuesEqual("x", nil) {
			t.Error("expected nil != value")
		}
	})

	t.Run("Structured", func(t *testing.T) {
		a := map[string]any{"k": []any{"v", "w"}}
		b := map[string]any{"k": []any{"v", "w"}}
		if !valuesEqual(a, b) {
			t.Error("expected deep-equal maps to compare equal")
		}
		b["k"] = []any{"v"}
		if valuesEqual(a, b) {
			t.Error("expected differing maps to compare unequal")
		}
	})
}

func TestRecordsEqual(t *testing.T) {
	a := Record{"key": "x", "val": float64(1)}
	b := Record{"key": "x", "val": uint64(1)}
	if !recordsEqual(a, b) {
		t.Error("expected records with normalized numerics to compare equal")
	}

	c := Record{"key": "x"}
	if recordsEqual(a, c) {
		t.Error("expected records with differing field sets to compare unequal")
	}
}

func TestSchemaValidate(t *testing.T) {
	s := Schema{
		"flag":  DataTypeBool,
		"count": DataTypeNumber,
		"name":  DataTypeString,
		"meta":  DataTypeObject,
		"tags":  DataTypeArray,
		"free":  DataTypeAny,
	}

	t.Run("Accepts", func(t *testing.T) {
		cases := map[string]any{
			"flag":  true,
			"count": uint64(3),
			"name":  "x",
			"meta":  map[string]any{"a": 1},
			"tags":  []any{"a"},
			"free":  struct{}{},
		}
		for key, value := range cases {
			if err := s.validate(key, value); err != nil {
				t.Errorf("key %q: unexpected error %v", key, err)
			}
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		cases := map[string]any{
			"flag":  "true",
			"count": "3",
			"name":  7,
			"meta":  []any{},
			"tags":  map[string]any{},
		}
		for key, value := range cases {
			err := s.validate(key, value)
			if err == nil {
				t.Errorf("key %q: expected rejection", key)
				continue
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("key %q: error does not unwrap to ErrValidation: %v", key, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Key != key {
				t.Errorf("key %q: expected *ValidationError carrying the key, got %v", key, err)
			}
		}
	})

	t.Run("UnconstrainedKey", func(t *testing.T) {
		if err := s.validate("other", 42); err != nil {
			t.Errorf("unexpected error for unconstrained key: %v", err)
		}
	})

	t.Run("NilSchema", func(t *testing.T) {
		var none Schema
		if err := none.validate("anything", 42); err != nil {
			t.Errorf("unexpected error with nil schema: %v", err)
		}
	})
}

func TestDataTypeString(t *testing.T) {
	if DataTypeNumber.String() != "number" {
		t.Errorf("expected 'number', got %q", DataTypeNumber.String())
	}
	if DataType(99).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", DataType(99).String())
	}
}
