package hostfuncs

import (
	"context"
	"iter"

	"github.com/reglet-dev/reglet-extensions/extension"
)

// ListExtensionsRequest asks for the capabilities available to the caller.
type ListExtensionsRequest struct{}

// ListExtensionsResponse lists capability type names in registry order.
type ListExtensionsResponse struct {
	Types []string `json:"types"`
}

// HasExtensionRequest asks whether a capability is available.
type HasExtensionRequest struct {
	Type string `json:"type" validate:"required"`
}

// HasExtensionResponse reports capability presence.
type HasExtensionResponse struct {
	Present bool `json:"present"`
}

// PerformListExtensions lists the registry attached to the call.
func PerformListExtensions(ctx context.Context, _ ListExtensionsRequest) ListExtensionsResponse {
	resp := ListExtensionsResponse{Types: []string{}}
	for id := range listExtensions(ctx) {
		resp.Types = append(resp.Types, id.String())
	}
	return resp
}

// PerformHasExtension looks a capability up by type name.
func PerformHasExtension(ctx context.Context, req HasExtensionRequest) HasExtensionResponse {
	for id := range listExtensions(ctx) {
		if id.String() == req.Type {
			return HasExtensionResponse{Present: true}
		}
	}
	return HasExtensionResponse{}
}

// listExtensions enumerates the attached store, or nothing when the store
// cannot enumerate.
func listExtensions(ctx context.Context) iter.Seq2[extension.TypeID, extension.Extension] {
	store, _ := extension.StoreFromContext(ctx)
	if lister, ok := store.(extension.Lister); ok {
		return lister.All()
	}
	return func(func(extension.TypeID, extension.Extension) bool) {}
}
