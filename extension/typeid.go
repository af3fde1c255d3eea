package extension

import (
	"cmp"
	"reflect"
	"sync"
	"sync/atomic"
)

// TypeID identifies a concrete Go type. Two TypeIDs are equal iff they were
// derived from the same type. TypeID is comparable and usable as a map key.
//
// The zero TypeID denotes no type and is never a valid registry key.
type TypeID struct {
	t reflect.Type
}

// TypeFor returns the TypeID of T.
func TypeFor[T any]() TypeID {
	return TypeID{t: reflect.TypeFor[T]()}
}

// TypeOf returns the TypeID of the dynamic type of v.
// It returns the zero TypeID for a nil interface.
func TypeOf(v any) TypeID {
	if v == nil {
		return TypeID{}
	}
	return TypeID{t: reflect.TypeOf(v)}
}

// IsZero reports whether id denotes no type.
func (id TypeID) IsZero() bool {
	return id.t == nil
}

// Type returns the underlying reflect.Type, or nil for the zero TypeID.
func (id TypeID) Type() reflect.Type {
	return id.t
}

// String returns the type name, e.g. "*metrics.Recorder".
func (id TypeID) String() string {
	if id.t == nil {
		return "<nil>"
	}
	return id.t.String()
}

// Compare orders TypeIDs by type name. Distinct types that print the same
// (local types, identically named packages) are ordered by the sequence in
// which this process first compared them, which is stable for the lifetime
// of the process. The zero TypeID sorts first.
func (id TypeID) Compare(other TypeID) int {
	switch {
	case id.t == other.t:
		return 0
	case id.t == nil:
		return -1
	case other.t == nil:
		return 1
	}
	if c := cmp.Compare(id.t.String(), other.t.String()); c != 0 {
		return c
	}
	return cmp.Compare(sequenceOf(id.t), sequenceOf(other.t))
}

var (
	sequences sync.Map // reflect.Type -> uint64
	nextSeq   atomic.Uint64
)

func sequenceOf(t reflect.Type) uint64 {
	if v, ok := sequences.Load(t); ok {
		return v.(uint64)
	}
	v, _ := sequences.LoadOrStore(t, nextSeq.Add(1))
	return v.(uint64)
}
