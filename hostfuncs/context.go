package hostfuncs

import (
	"context"
	"errors"

	"github.com/reglet-dev/reglet-extensions/extension"
)

// ErrNoExtensionStore is returned by HostContext store operations when the
// call carries no extension registry.
var ErrNoExtensionStore = errors.New("no extension store attached to host call")

// HostContext wraps a standard context.Context with host function-specific helpers.
// It is also the extension.Store of the execution context that made the
// call, so handlers can write extension.Get[*T](hctx).
type HostContext interface {
	context.Context
	extension.Store

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string

	// Extensions returns the store attached to the call, if any.
	Extensions() (extension.Store, bool)

	// SetValue stores a request-scoped value. Unlike context.WithValue,
	// this mutates the existing HostContext for performance.
	SetValue(key, value any)

	// GetValue retrieves a request-scoped value set by SetValue.
	GetValue(key any) (value any, ok bool)
}

// hostContext is the concrete implementation of HostContext.
type hostContext struct {
	context.Context
	store    extension.Store
	values   map[any]any
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
// The extension store is taken from ctx (see extension.WithStore).
func NewHostContext(ctx context.Context, funcName string) HostContext {
	store, _ := extension.StoreFromContext(ctx)
	return &hostContext{
		Context:  ctx,
		store:    store,
		funcName: funcName,
		values:   make(map[any]any),
	}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) Extensions() (extension.Store, bool) {
	return c.store, c.store != nil
}

func (c *hostContext) SetValue(key, value any) {
	c.values[key] = value
}

func (c *hostContext) GetValue(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *hostContext) ExtensionByTypeID(id extension.TypeID) (any, bool) {
	if c.store == nil {
		return nil, false
	}
	return c.store.ExtensionByTypeID(id)
}

func (c *hostContext) RegisterExtensionWithTypeID(id extension.TypeID, ext extension.Extension) error {
	if c.store == nil {
		return ErrNoExtensionStore
	}
	return c.store.RegisterExtensionWithTypeID(id, ext)
}

func (c *hostContext) DeregisterExtensionByTypeID(id extension.TypeID) error {
	if c.store == nil {
		return ErrNoExtensionStore
	}
	return c.store.DeregisterExtensionByTypeID(id)
}

// HostContextFrom extracts a HostContext from a context.Context.
// If the context is already a HostContext, it is returned directly.
// Otherwise, a new HostContext is created wrapping the given context.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok {
		return hc
	}
	return NewHostContext(ctx, funcName)
}
