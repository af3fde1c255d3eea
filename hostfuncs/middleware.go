package hostfuncs

import (
	"context"
	"log/slog"
	"time"

	"github.com/reglet-dev/reglet-extensions/extension"
)

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics and converts
// them to structured ErrorResponse JSON instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = NewPanicError(r).ToJSON()
					err = nil // Return JSON error, not Go error
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host function
// invocations at debug level, and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			start := time.Now()
			resp, err := next(ctx, payload)
			if err != nil {
				logger.WarnContext(ctx, "host function failed",
					"function", funcName, "error", err, "duration", time.Since(start))
			} else {
				logger.DebugContext(ctx, "host function completed",
					"function", funcName, "request_size", len(payload), "duration", time.Since(start))
			}
			return resp, err
		}
	}
}

// RequireExtensions returns a middleware that answers NOT_REGISTERED
// without calling the handler unless every listed capability is present.
func RequireExtensions(ids ...extension.TypeID) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			store, _ := extension.StoreFromContext(ctx)
			if hc, ok := ctx.(HostContext); ok {
				store = hc
			}
			for _, id := range ids {
				if store == nil {
					return NewNotRegisteredError(id).ToJSON(), nil
				}
				if _, ok := store.ExtensionByTypeID(id); !ok {
					return NewNotRegisteredError(id).ToJSON(), nil
				}
			}
			return next(ctx, payload)
		}
	}
}
