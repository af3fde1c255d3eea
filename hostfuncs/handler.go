package hostfuncs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxRequestSize limits the size of incoming requests (1MB).
// This prevents a guest from triggering OOM by claiming a huge request.
const DefaultMaxRequestSize = 1 * 1024 * 1024

// ErrRequestTooLarge is returned for payloads above DefaultMaxRequestSize.
var ErrRequestTooLarge = errors.New("request exceeds maximum size")

// validate is shared by all JSON handlers; building a validator is expensive.
var validate = validator.New()

// HostFunc is a generic function signature for host functions.
// It accepts a context and a typed request, and returns a typed response.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler is a function that accepts raw bytes (JSON) and returns raw bytes (JSON).
// This is the common interface that WASM runtimes can easily use.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler wraps a typed HostFunc into a ByteHandler.
// It unmarshals and validates the request (validate struct tags) and
// marshals the response. A request that cannot be decoded or fails
// validation is answered with a VALIDATION_ERROR response without calling fn.
//
// Usage:
//
//	getHandler := hostfuncs.NewJSONHandler(func(ctx context.Context, req hostfuncs.StorageGetRequest) hostfuncs.StorageGetResponse {
//	    return hostfuncs.PerformStorageGet(ctx, req)
//	})
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		if len(payload) > DefaultMaxRequestSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrRequestTooLarge, len(payload))
		}

		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return NewValidationError("failed to unmarshal request: " + err.Error()).ToJSON(), nil
			}
		}

		if err := validateRequest(req); err != nil {
			return NewValidationError(err.Error()).ToJSON(), nil
		}

		resp := fn(ctx, req)

		respBytes, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return respBytes, nil
	}
}

// validateRequest runs struct validation; non-struct requests pass.
func validateRequest(req any) error {
	err := validate.Struct(req)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}
