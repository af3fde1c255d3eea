package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero/api"
)

// Caller identifies the guest side of a host function call.
type Caller struct {
	// Plugin labels the instance. Empty for anonymous query runs.
	Plugin string
	// Export is the guest export whose execution led to the call.
	Export string
}

type callerKey struct{}

// WithCaller records who is calling host functions under ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the Caller recorded by WithCaller.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// WithPluginName records only the plugin label.
func WithPluginName(ctx context.Context, name string) context.Context {
	c, _ := CallerFromContext(ctx)
	c.Plugin = name
	return WithCaller(ctx, c)
}

// PluginNameFromContext returns the plugin label, if one was set.
func PluginNameFromContext(ctx context.Context) (string, bool) {
	c, ok := CallerFromContext(ctx)
	return c.Plugin, ok && c.Plugin != ""
}

// GetPluginName returns the plugin label, falling back to the module name.
func GetPluginName(ctx context.Context, mod api.Module) string {
	if name, ok := PluginNameFromContext(ctx); ok {
		return name
	}
	if mod == nil {
		return ""
	}
	return mod.Name()
}

// callerAttrs are the log attributes describing the guest side of a call.
func callerAttrs(ctx context.Context, mod api.Module) []slog.Attr {
	attrs := []slog.Attr{slog.String("plugin", GetPluginName(ctx, mod))}
	if c, ok := CallerFromContext(ctx); ok && c.Export != "" {
		attrs = append(attrs, slog.String("export", c.Export))
	}
	return attrs
}
