package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/reglet-dev/reglet-extensions/extension"
)

// HandlerRegistry is an immutable set of named host functions together with
// the extensions each of them needs. It is safe for concurrent use.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	requires map[string][]extension.TypeID
	names    []string // sorted
}

type registryBuilder struct {
	handlers   map[string]ByteHandler
	requires   map[string][]extension.TypeID
	middleware []Middleware
	errors     []error
}

// NewRegistry builds a HandlerRegistry. All registration problems are
// reported together.
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(AllBundles()),
//	    WithRequirement("custom", extension.TypeFor[*Storage]()),
//	)
//
// A handler with requirements answers NOT_REGISTERED without running when
// the calling store lacks one of them. Middleware still sees the call.
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[string]ByteHandler),
		requires: make(map[string][]extension.TypeID),
	}
	for _, opt := range opts {
		opt(b)
	}

	for name := range b.requires {
		if _, ok := b.handlers[name]; !ok {
			b.errors = append(b.errors, fmt.Errorf("requirement for unknown handler %q", name))
		}
	}
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}

	reg := &HandlerRegistry{
		handlers: make(map[string]ByteHandler, len(b.handlers)),
		requires: b.requires,
		names:    make([]string, 0, len(b.handlers)),
	}
	for name, handler := range b.handlers {
		if ids := b.requires[name]; len(ids) > 0 {
			handler = RequireExtensions(ids...)(handler)
		}
		// first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			handler = b.middleware[i](handler)
		}
		reg.handlers[name] = handler
		reg.names = append(reg.names, name)
	}
	slices.Sort(reg.names)

	return reg, nil
}

// Invoke dispatches a call by name. Unknown names produce a NOT_FOUND
// response rather than an error. The handler runs with a HostContext that
// delegates to the extension store attached to ctx.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name).ToJSON(), nil
	}
	return handler(HostContextFrom(ctx, name), payload)
}

// Has reports whether name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *HandlerRegistry) Names() []string {
	return slices.Clone(r.names)
}

// Requirements returns the extensions the named handler needs.
func (r *HandlerRegistry) Requirements(name string) []extension.TypeID {
	return slices.Clone(r.requires[name])
}

// Unavailable returns, sorted, the handlers that would answer NOT_REGISTERED
// when called against store. A nil store satisfies nothing.
func (r *HandlerRegistry) Unavailable(store extension.Store) []string {
	var out []string
	for _, name := range r.names {
		for _, id := range r.requires[name] {
			if store == nil {
				out = append(out, name)
				break
			}
			if _, ok := store.ExtensionByTypeID(id); !ok {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	b.handlers[name] = handler
	return nil
}

func (b *registryBuilder) addRequirement(name string, ids []extension.TypeID) {
	for _, id := range ids {
		if id.IsZero() {
			b.errors = append(b.errors, fmt.Errorf("handler %q: %w", name, extension.ErrInvalidExtension))
			return
		}
		if !slices.Contains(b.requires[name], id) {
			b.requires[name] = append(b.requires[name], id)
		}
	}
}

// WithByteHandler registers a raw ByteHandler.
// Use WithHandler for typed registration with JSON handling.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithRequirement declares the extensions a handler needs. The handler must
// be registered by some option of the same NewRegistry call.
func WithRequirement(name string, ids ...extension.TypeID) RegistryOption {
	return func(b *registryBuilder) {
		b.addRequirement(name, ids)
	}
}

// WithMiddleware adds middleware. First added wraps outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
