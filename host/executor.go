package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/reglet-extensions/application/config"
	"github.com/reglet-dev/reglet-extensions/extension"
	"github.com/reglet-dev/reglet-extensions/hostfuncs"
	infrawazero "github.com/reglet-dev/reglet-extensions/infrastructure/wazero"
)

// Executor owns a wazero runtime with the host functions registered and
// instantiates guests on it.
type Executor struct {
	runtime    wazero.Runtime
	registry   *hostfuncs.HandlerRegistry
	logger     *slog.Logger
	extensions func() *extension.Extensions
	cfg        config.RuntimeConfig
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{cfg: config.Default().Runtime}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.extensions == nil {
		logger := e.logger
		e.extensions = func() *extension.Extensions {
			return extension.New(extension.WithLogger(logger))
		}
	}

	// Default registry if not provided
	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(e.logger)),
			hostfuncs.WithBundle(hostfuncs.AllBundles()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rtConfig := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(e.cfg.MemoryLimitPages)
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	err := infrawazero.RegisterWithRuntime(ctx, rt, e.registry,
		infrawazero.WithModuleName(e.cfg.ModuleName),
		infrawazero.WithMaxRequestSize(uint32(e.cfg.MaxRequestSize)), //nolint:gosec // G115: validated positive by config
		infrawazero.WithLogger(e.logger),
		infrawazero.WithCustomHandler(infrawazero.LogMessageHandler(e.logger)),
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Registry returns the host functions guests can import.
func (e *Executor) Registry() *hostfuncs.HandlerRegistry {
	return e.registry
}

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadPlugin compiles and instantiates a WASM module.
func (e *Executor) LoadPlugin(ctx context.Context, wasmBytes []byte, opts ...InstanceOption) (*PluginInstance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}
	return e.instantiate(ctx, compiled, opts...)
}

func (e *Executor) instantiate(ctx context.Context, compiled wazero.CompiledModule, opts ...InstanceOption) (*PluginInstance, error) {
	var cfg instanceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.exts == nil {
		cfg.exts = e.extensions()
	}

	p := &PluginInstance{exts: cfg.exts, name: cfg.name, logger: e.logger}

	// Anonymous instances so the same program can run concurrently.
	modCfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	mod, err := e.runtime.InstantiateModule(p.callContext(ctx, ""), compiled, modCfg)
	if err != nil {
		_ = cfg.exts.Close()
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}
	p.module = mod

	// Reactor guests (wasip1 -buildmode=c-shared) need _initialize before
	// any other export.
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(p.callContext(ctx, "_initialize")); err != nil {
			_ = p.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	if missing := e.registry.Unavailable(cfg.exts); len(missing) > 0 {
		e.logger.Debug("host functions unavailable until their extensions are registered",
			"plugin", cfg.name, "functions", missing)
	}

	return p, nil
}
