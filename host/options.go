package host

import (
	"log/slog"

	"github.com/reglet-dev/reglet-extensions/application/config"
	"github.com/reglet-dev/reglet-extensions/extension"
	"github.com/reglet-dev/reglet-extensions/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions configures the executor with a host function registry.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithRuntimeConfig sets the module name, request size limit and guest
// memory limit.
func WithRuntimeConfig(cfg config.RuntimeConfig) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger for host diagnostics and guest log messages.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithExtensions sets the factory that provides every new instance with
// its own extension registry.
func WithExtensions(factory func() *extension.Extensions) Option {
	return func(e *Executor) {
		e.extensions = factory
	}
}

// InstanceOption configures a single PluginInstance.
type InstanceOption func(*instanceConfig)

type instanceConfig struct {
	exts *extension.Extensions
	name string
}

// WithInstanceExtensions gives the instance exts instead of a registry from
// the executor's factory. The instance takes ownership of exts.
func WithInstanceExtensions(exts *extension.Extensions) InstanceOption {
	return func(c *instanceConfig) {
		c.exts = exts
	}
}

// WithPluginName labels the instance in host function diagnostics.
func WithPluginName(name string) InstanceOption {
	return func(c *instanceConfig) {
		c.name = name
	}
}
