package hostfuncs

import (
	"context"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/extension"
	"github.com/reglet-dev/reglet-extensions/metrics"
)

// MetricUpdateRequest is a metric update sent by a guest.
type MetricUpdateRequest = entities.MetricUpdate

// MetricUpdateResponse acknowledges a metric update.
type MetricUpdateResponse struct {
	Error *ErrorResponse `json:"error,omitempty"`
}

// PerformMetricUpdate emits req through the metrics.Recorder extension of
// the caller.
func PerformMetricUpdate(ctx context.Context, req MetricUpdateRequest) MetricUpdateResponse {
	rec, err := extension.Require[*metrics.Recorder](HostContextFrom(ctx, ""))
	if err != nil {
		resp := ErrorResponseFrom(err)
		return MetricUpdateResponse{Error: &resp}
	}
	if err := rec.Emit(ctx, req); err != nil {
		resp := NewValidationError(err.Error())
		return MetricUpdateResponse{Error: &resp}
	}
	return MetricUpdateResponse{}
}
