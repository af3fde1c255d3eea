package extension

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRegistered is returned by insert-only registration when an
	// instance with the same TypeID is already present.
	ErrAlreadyRegistered = errors.New("extension already registered")

	// ErrNotRegistered is returned when a lookup or removal names a TypeID
	// that has no instance.
	ErrNotRegistered = errors.New("extension not registered")

	// ErrInvalidExtension is returned for a nil instance or a zero TypeID.
	ErrInvalidExtension = errors.New("invalid extension")
)

// RegistrationError describes a failed registry operation.
type RegistrationError struct {
	Err  error
	Op   string
	Type TypeID
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
