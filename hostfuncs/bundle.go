package hostfuncs

import (
	"context"
	"maps"

	"github.com/reglet-dev/reglet-extensions/extension"
	"github.com/reglet-dev/reglet-extensions/metrics"
)

// Host function names.
const (
	FuncExtensionList = "extension_list"
	FuncExtensionHas  = "extension_has"
	FuncStorageGet    = "storage_get"
	FuncStorageSet    = "storage_set"
	FuncStorageDelete = "storage_delete"
	FuncMetricUpdate  = "metric_update"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once for common use cases.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

// RequirementsProvider is implemented by bundles whose handlers need
// extensions. WithBundle registers the requirements with the handlers.
type RequirementsProvider interface {
	Requirements() map[string][]extension.TypeID
}

// staticBundle implements HostFuncBundle with a fixed set of handlers.
type staticBundle struct {
	handlers map[string]ByteHandler
	requires map[string][]extension.TypeID
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

func (b *staticBundle) Requirements() map[string][]extension.TypeID {
	return b.requires
}

// requireAll maps every name to the same requirement list.
func requireAll(ids []extension.TypeID, names ...string) map[string][]extension.TypeID {
	out := make(map[string][]extension.TypeID, len(names))
	for _, name := range names {
		out[name] = ids
	}
	return out
}

// ExtensionBundle returns the registry introspection host functions:
// extension_list, extension_has.
func ExtensionBundle() HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncExtensionList: NewJSONHandler(func(ctx context.Context, req ListExtensionsRequest) ListExtensionsResponse {
				return PerformListExtensions(ctx, req)
			}),
			FuncExtensionHas: NewJSONHandler(func(ctx context.Context, req HasExtensionRequest) HasExtensionResponse {
				return PerformHasExtension(ctx, req)
			}),
		},
	}
}

// StorageBundle returns the key/value host functions backed by the Storage
// extension: storage_get, storage_set, storage_delete.
func StorageBundle() HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncStorageGet: NewJSONHandler(func(ctx context.Context, req StorageGetRequest) StorageGetResponse {
				return PerformStorageGet(ctx, req)
			}),
			FuncStorageSet: NewJSONHandler(func(ctx context.Context, req StorageSetRequest) StorageWriteResponse {
				return PerformStorageSet(ctx, req)
			}),
			FuncStorageDelete: NewJSONHandler(func(ctx context.Context, req StorageDeleteRequest) StorageWriteResponse {
				return PerformStorageDelete(ctx, req)
			}),
		},
		requires: requireAll([]extension.TypeID{extension.TypeFor[*Storage]()},
			FuncStorageGet, FuncStorageSet, FuncStorageDelete),
	}
}

// MetricsBundle returns the host function backed by the metrics.Recorder
// extension: metric_update.
func MetricsBundle() HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncMetricUpdate: NewJSONHandler(func(ctx context.Context, req MetricUpdateRequest) MetricUpdateResponse {
				return PerformMetricUpdate(ctx, req)
			}),
		},
		requires: requireAll([]extension.TypeID{extension.TypeFor[*metrics.Recorder]()}, FuncMetricUpdate),
	}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		maps.Copy(result, bundle.Handlers())
	}
	return result
}

func (b *compositeBundle) Requirements() map[string][]extension.TypeID {
	result := make(map[string][]extension.TypeID)
	for _, bundle := range b.bundles {
		if rp, ok := bundle.(RequirementsProvider); ok {
			maps.Copy(result, rp.Requirements())
		}
	}
	return result
}

// AllBundles returns a bundle containing all built-in host functions.
func AllBundles() HostFuncBundle {
	return &compositeBundle{
		bundles: []HostFuncBundle{
			ExtensionBundle(),
			StorageBundle(),
			MetricsBundle(),
		},
	}
}

// WithBundle registers all handlers from a bundle, along with their
// requirements when the bundle is a RequirementsProvider.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			if err := b.addHandler(name, handler); err != nil {
				b.errors = append(b.errors, err)
			}
		}
		if rp, ok := bundle.(RequirementsProvider); ok {
			for name, ids := range rp.Requirements() {
				b.addRequirement(name, ids)
			}
		}
	}
}

// WithHandler registers a typed host function with automatic JSON handling.
// The handler will be wrapped with NewJSONHandler for JSON serialization.
//
// Example usage:
//
//	WithHandler("custom_func", func(ctx context.Context, req MyRequest) MyResponse {
//	    return MyResponse{Result: req.Input}
//	})
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		handler := NewJSONHandler(fn)
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}
