package extension

import (
	"context"
	"iter"
)

// Store is the capability surface an execution context exposes to the code
// it runs. It is deliberately free of any concrete capability type; use the
// generic helpers Get, Require, Register and Deregister for typed access.
type Store interface {
	// ExtensionByTypeID returns the erased instance stored under id.
	ExtensionByTypeID(id TypeID) (any, bool)

	// RegisterExtensionWithTypeID inserts ext under id. It fails with
	// ErrAlreadyRegistered if id is taken.
	RegisterExtensionWithTypeID(id TypeID, ext Extension) error

	// DeregisterExtensionByTypeID removes the instance stored under id.
	// It fails with ErrNotRegistered if id is absent.
	DeregisterExtensionByTypeID(id TypeID) error
}

// Lister is implemented by stores that can enumerate their contents.
type Lister interface {
	All() iter.Seq2[TypeID, Extension]
}

// Get returns the instance of type T held by s. The result is ok only when
// an instance is stored under TypeFor[T]() and it really is a T.
func Get[T any](s Store) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.ExtensionByTypeID(TypeFor[T]())
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Require is Get for callers that treat absence as an error.
func Require[T any](s Store) (T, error) {
	t, ok := Get[T](s)
	if !ok {
		return t, &RegistrationError{Op: "lookup", Type: TypeFor[T](), Err: ErrNotRegistered}
	}
	return t, nil
}

// Register inserts ext into s under its own identity. Unlike
// Extensions.Register it never overwrites.
func Register(s Store, ext Extension) error {
	if isNil(ext) {
		return &RegistrationError{Op: "register", Err: ErrInvalidExtension}
	}
	return s.RegisterExtensionWithTypeID(ext.ExtensionType(), ext)
}

// Deregister removes the instance of type T from s.
func Deregister[T any](s Store) error {
	return s.DeregisterExtensionByTypeID(TypeFor[T]())
}

type storeKey struct{}

// WithStore returns a copy of ctx carrying s.
func WithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// StoreFromContext returns the Store attached by WithStore.
func StoreFromContext(ctx context.Context) (Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(storeKey{}).(Store)
	return s, ok && s != nil
}
