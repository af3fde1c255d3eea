package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/reglet-extensions/hostfuncs"
)

// DefaultModuleName is the import module guests use for host functions.
const DefaultModuleName = "reglet_host"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives adapter diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// ModuleName is the host module name (default: "reglet_host").
	ModuleName string

	// CustomHandlers allows adding additional wazero-specific handlers that
	// don't fit the standard ByteHandler pattern (e.g., log_message with no return).
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of incoming requests from guest memory.
	// Default is 1MB.
	MaxRequestSize uint32
}

// CustomHandler represents a custom wazero handler that doesn't use the standard
// packed i64 request/response pattern.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "reglet_host").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithLogger sets the logger used for adapter diagnostics.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime registers all handlers from a HandlerRegistry with a wazero runtime.
// This creates a host module with the configured name (default: "reglet_host") and
// exports all handlers from the registry.
//
// Each handler is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Invoke the ByteHandler with the request payload
//   - Allocate response memory in the guest using the "allocate" export
//   - Write response bytes to guest memory
//   - Return packed i64 ptr+len of the response
//
// The extension store the caller attached to ctx (extension.WithStore) is
// what the handlers see, so every instance gets its own capabilities.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("reglet_host"),
//	)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		funcName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, funcName, cfg)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleRegistryCall handles a host function call from WASM.
// It reads the request from guest memory, invokes the handler, and writes the response.
func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg AdapterConfig) {
	args := []any{slog.String("function", name)}
	for _, a := range callerAttrs(ctx, mod) {
		args = append(args, a)
	}
	logger := cfg.Logger.With(args...)
	ptr, length := UnpackPtrLen(stack[0])

	if length > cfg.MaxRequestSize {
		errMsg := fmt.Sprintf("request size %d exceeds maximum %d bytes", length, cfg.MaxRequestSize)
		logger.ErrorContext(ctx, "wazero: "+errMsg)
		stack[0] = mustWrite(ctx, mod, hostfuncs.NewValidationError(errMsg).ToJSON())
		return
	}

	requestBytes, err := ReadBytes(mod.Memory(), ptr, length)
	if err != nil {
		logger.ErrorContext(ctx, "wazero: failed to read request", "error", err)
		stack[0] = mustWrite(ctx, mod, hostfuncs.NewInternalError(err.Error()).ToJSON())
		return
	}

	responseBytes, err := registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		logger.ErrorContext(ctx, "wazero: handler invocation failed", "error", err)
		stack[0] = mustWrite(ctx, mod, hostfuncs.ErrorResponseFrom(err).ToJSON())
		return
	}

	logger.DebugContext(ctx, "wazero: host call", "request_size", len(requestBytes), "response_size", len(responseBytes))
	stack[0] = mustWrite(ctx, mod, responseBytes)
}

// mustWrite writes a response into the guest. A guest that cannot receive
// the response fails the call with a HostCallError.
func mustWrite(ctx context.Context, mod api.Module, data []byte) uint64 {
	packed, err := WriteBytes(ctx, mod, data)
	if err != nil {
		panic(&HostCallError{Err: err})
	}
	return packed
}
