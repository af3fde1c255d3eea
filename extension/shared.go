package extension

import (
	"iter"
	"sync"
)

// Shared guards an Extensions registry with a mutex so it can be handed
// between goroutines. Every Store method holds the lock for its duration.
type Shared struct {
	exts *Extensions
	mu   sync.Mutex
}

// NewShared takes ownership of exts. A nil exts starts empty.
func NewShared(exts *Extensions) *Shared {
	if exts == nil {
		exts = New()
	}
	return &Shared{exts: exts}
}

// With runs fn while holding the lock. fn must not retain exts.
func (s *Shared) With(fn func(exts *Extensions)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.registry())
}

// Take moves the registry out, leaving s empty.
func (s *Shared) Take() *Extensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	exts := s.registry()
	s.exts = New(WithLogger(exts.logger))
	return exts
}

func (s *Shared) ExtensionByTypeID(id TypeID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry().Get(id)
}

func (s *Shared) RegisterExtensionWithTypeID(id TypeID, ext Extension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry().RegisterWithTypeID(id, ext)
}

func (s *Shared) DeregisterExtensionByTypeID(id TypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry().DeregisterExtensionByTypeID(id)
}

// All yields a snapshot taken under the lock; the lock is not held while
// the caller consumes it.
func (s *Shared) All() iter.Seq2[TypeID, Extension] {
	return func(yield func(TypeID, Extension) bool) {
		s.mu.Lock()
		exts := s.registry()
		ids := exts.TypeIDs()
		items := make([]Extension, len(ids))
		for i, id := range ids {
			items[i] = exts.entries[id]
		}
		s.mu.Unlock()

		for i, id := range ids {
			if !yield(id, items[i]) {
				return
			}
		}
	}
}

// Len returns the number of registered instances.
func (s *Shared) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry().Len()
}

func (s *Shared) registry() *Extensions {
	if s.exts == nil {
		s.exts = New()
	}
	return s.exts
}

var (
	_ Store  = (*Shared)(nil)
	_ Lister = (*Shared)(nil)
)
