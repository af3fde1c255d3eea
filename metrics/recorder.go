package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	"github.com/reglet-dev/reglet-extensions/extension"
	rlog "github.com/reglet-dev/reglet-extensions/log"
)

const (
	// Target marks metric events.
	Target = "metrics"

	// TargetKey is the attribute holding the event target.
	TargetKey = "target"

	// UpdateOpKey is the attribute holding the encoded update.
	UpdateOpKey = "update_op"

	eventMessage = "metric update"
)

var validate = validator.New()

// Recorder emits metric updates as log events. It is registered as an
// extension so host functions can reach it; a nil *Recorder discards
// updates.
type Recorder struct {
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to logger, or slog.Default() when
// logger is nil.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

func (r *Recorder) AsAny() any { return r }

func (r *Recorder) ExtensionType() extension.TypeID { return extension.TypeFor[*Recorder]() }

// Emit validates update and writes it as one trace event.
func (r *Recorder) Emit(ctx context.Context, update entities.MetricUpdate) error {
	if r == nil {
		return nil
	}
	if err := validate.Struct(update); err != nil {
		return fmt.Errorf("invalid metric update: %w", err)
	}
	encoded, err := EncodeUpdate(update)
	if err != nil {
		return err
	}
	r.logger.LogAttrs(ctx, rlog.LevelTrace, eventMessage,
		slog.String(TargetKey, Target),
		slog.String(UpdateOpKey, encoded),
	)
	return nil
}

// Counter returns a handle for the counter described by def.
func (r *Recorder) Counter(def CounterDefinition) *Counter {
	return &Counter{name: def.Name, rec: r}
}

// CounterVec returns a handle for the labelled counter described by def.
func (r *Recorder) CounterVec(def CounterVecDefinition) *CounterVec {
	return &CounterVec{name: def.Name, rec: r}
}

// Histogram returns a handle for the histogram described by def.
func (r *Recorder) Histogram(def HistogramDefinition) *Histogram {
	return &Histogram{name: def.Name, rec: r}
}

// EncodeUpdate renders update in its event form.
func EncodeUpdate(update entities.MetricUpdate) (string, error) {
	data, err := msgpack.Marshal(&update)
	if err != nil {
		return "", fmt.Errorf("encode metric update: %w", err)
	}
	return base58.Encode(data), nil
}

// DecodeUpdate parses the update_op attribute of a metric event.
func DecodeUpdate(s string) (entities.MetricUpdate, error) {
	var update entities.MetricUpdate
	data, err := base58.Decode(s)
	if err != nil {
		return update, fmt.Errorf("decode metric update: %w", err)
	}
	if err := msgpack.Unmarshal(data, &update); err != nil {
		return update, fmt.Errorf("decode metric update: %w", err)
	}
	return update, nil
}

var _ extension.Extension = (*Recorder)(nil)
