package extension

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"reflect"
	"slices"
)

// Extensions is a registry holding at most one capability instance per
// TypeID. The registry owns its instances: an instance that leaves it is
// released (closed when it implements io.Closer).
//
// The zero value is an empty registry ready to use. A nil *Extensions is
// an empty registry that ignores writes: Register and Merge do nothing and
// RegisterWithTypeID reports ErrInvalidExtension.
type Extensions struct {
	entries map[TypeID]Extension
	logger  *slog.Logger
}

// Option configures an Extensions registry.
type Option func(*Extensions)

// WithLogger sets the logger used to report release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extensions) {
		e.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Extensions {
	e := &Extensions{
		entries: make(map[TypeID]Extension),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register inserts ext under ext.ExtensionType(), replacing and releasing
// any instance already stored under that identity. A nil ext, including a
// typed nil such as (*T)(nil), is ignored.
func (e *Extensions) Register(ext Extension) {
	if e == nil || isNil(ext) {
		return
	}
	id := ext.ExtensionType()
	if id.IsZero() {
		e.log().Warn("ignoring extension with empty type identity", "type", TypeOf(ext))
		return
	}
	e.put(id, ext)
}

// RegisterWithTypeID inserts ext under id only if id is not yet present.
// On failure the registry is unchanged.
func (e *Extensions) RegisterWithTypeID(id TypeID, ext Extension) error {
	if e == nil || id.IsZero() || isNil(ext) {
		return &RegistrationError{Op: "register", Type: id, Err: ErrInvalidExtension}
	}
	if _, exists := e.entries[id]; exists {
		return &RegistrationError{Op: "register", Type: id, Err: ErrAlreadyRegistered}
	}
	if e.entries == nil {
		e.entries = make(map[TypeID]Extension)
	}
	e.entries[id] = ext
	return nil
}

// Get returns the erased instance stored under id. The returned value is
// the instance itself, so mutations through a pointer are visible to later
// lookups.
func (e *Extensions) Get(id TypeID) (any, bool) {
	if e == nil {
		return nil, false
	}
	ext, ok := e.entries[id]
	if !ok {
		return nil, false
	}
	return ext.AsAny(), true
}

// Contains reports whether an instance is stored under id.
func (e *Extensions) Contains(id TypeID) bool {
	if e == nil {
		return false
	}
	_, ok := e.entries[id]
	return ok
}

// Deregister removes and releases the instance stored under id.
// It reports whether an instance was present.
func (e *Extensions) Deregister(id TypeID) bool {
	if e == nil {
		return false
	}
	ext, ok := e.entries[id]
	if !ok {
		return false
	}
	delete(e.entries, id)
	_ = e.release(id, ext)
	return true
}

// Len returns the number of registered instances.
func (e *Extensions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// TypeIDs returns the registered identities in TypeID order.
func (e *Extensions) TypeIDs() []TypeID {
	if e == nil {
		return nil
	}
	ids := make([]TypeID, 0, len(e.entries))
	for id := range e.entries {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, TypeID.Compare)
	return ids
}

// All yields every (TypeID, instance) pair in TypeID order. Each call starts
// a fresh pass. Entries removed during iteration are skipped.
func (e *Extensions) All() iter.Seq2[TypeID, Extension] {
	return func(yield func(TypeID, Extension) bool) {
		for _, id := range e.TypeIDs() {
			ext, ok := e.entries[id]
			if !ok {
				continue
			}
			if !yield(id, ext) {
				return
			}
		}
	}
}

// Merge moves every entry of other into e. Entries of other win on
// conflict; the displaced instances of e are released. Moved instances are
// not released and other is left empty. Merging a registry into itself or
// merging nil is a no-op.
func (e *Extensions) Merge(other *Extensions) {
	if e == nil || other == nil || other == e || len(other.entries) == 0 {
		return
	}
	for _, id := range other.TypeIDs() {
		e.put(id, other.entries[id])
	}
	clear(other.entries)
}

// Extend merges each registry in order, so later registries win.
func (e *Extensions) Extend(others ...*Extensions) {
	for _, other := range others {
		e.Merge(other)
	}
}

// Close releases every instance and empties the registry.
func (e *Extensions) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, id := range e.TypeIDs() {
		ext := e.entries[id]
		delete(e.entries, id)
		if err := e.release(id, ext); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Extensions) String() string {
	return fmt.Sprintf("Extensions: (%d)", e.Len())
}

// ExtensionByTypeID implements Store.
func (e *Extensions) ExtensionByTypeID(id TypeID) (any, bool) {
	return e.Get(id)
}

// RegisterExtensionWithTypeID implements Store.
func (e *Extensions) RegisterExtensionWithTypeID(id TypeID, ext Extension) error {
	return e.RegisterWithTypeID(id, ext)
}

// DeregisterExtensionByTypeID implements Store.
func (e *Extensions) DeregisterExtensionByTypeID(id TypeID) error {
	if !e.Deregister(id) {
		return &RegistrationError{Op: "deregister", Type: id, Err: ErrNotRegistered}
	}
	return nil
}

func (e *Extensions) put(id TypeID, ext Extension) {
	if e.entries == nil {
		e.entries = make(map[TypeID]Extension)
	}
	prev, existed := e.entries[id]
	e.entries[id] = ext
	if existed && !sameInstance(prev, ext) {
		_ = e.release(id, prev)
	}
}

func (e *Extensions) release(id TypeID, ext Extension) error {
	c, ok := ext.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		e.log().Warn("failed to release extension", "type", id.String(), "error", err)
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}

func (e *Extensions) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// sameInstance reports whether a and b refer to the same stored object, so
// that re-registering an instance does not release it.
func sameInstance(a, b Extension) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() { //nolint:exhaustive // remaining kinds compare by value
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

var (
	_ Store     = (*Extensions)(nil)
	_ Lister    = (*Extensions)(nil)
	_ io.Closer = (*Extensions)(nil)
)

// isNil reports whether ext is a nil interface or wraps a nil pointer, map,
// slice, func, chan or interface.
func isNil(ext Extension) bool {
	if ext == nil {
		return true
	}
	switch v := reflect.ValueOf(ext); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
