package model

import (
	"errors"
	"fmt"
)

// Tree construction and lookup errors.
var (
	ErrInvalidName    = errors.New("invalid member name")
	ErrChildExists    = errors.New("child name already in use")
	ErrUnknownChild   = errors.New("unknown child")
	ErrValidation     = errors.New("attribute validation failed")
	ErrMalformedEntry = errors.New("malformed collection entry")
	ErrBadSnapshot    = errors.New("snapshot shape mismatch")
)

// ValidationError reports a value rejected by an attribute type guard.
// The mutation that produced it was not applied.
type ValidationError struct {
	// Key is the attribute key the value was destined for.
	Key string

	// Value is the rejected value.
	Value any

	// Reason describes why the value was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("attribute %q: %s (value: %v)", e.Key, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// MalformedEntryError reports a collection entry that could not be used,
// typically because its identity key is missing or not a string. The rest
// of the batch it arrived in is applied normally.
type MalformedEntryError struct {
	// Index is the entry's position in the submitted sequence.
	Index int

	// Reason describes the defect.
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
}

func (e *MalformedEntryError) Unwrap() error {
	return ErrMalformedEntry
}
