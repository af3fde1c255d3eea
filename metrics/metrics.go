package metrics

import (
	"context"
	"time"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
)

// CounterDefinition describes a counter known to the client.
type CounterDefinition struct {
	Name        string
	Description string
}

// CounterVecDefinition describes a labelled counter known to the client.
type CounterVecDefinition struct {
	Name        string
	Description string
	Labels      []string
}

// HistogramDefinition describes a histogram known to the client.
type HistogramDefinition struct {
	Name        string
	Description string
	Buckets     []float64
}

// Counter is a monotonically increasing value.
type Counter struct {
	rec  *Recorder
	name string
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context) {
	c.IncBy(ctx, 1)
}

// IncBy increments the counter by value.
func (c *Counter) IncBy(ctx context.Context, value uint64) {
	c.rec.emit(ctx, entities.MetricUpdate{
		Metric: c.name,
		Op:     entities.MetricOpIncrementCounter,
		Value:  value,
	})
}

// CounterVec holds counters that differ by label values.
type CounterVec struct {
	rec  *Recorder
	name string
}

// WithLabelValues selects the counter for the given label values.
func (v *CounterVec) WithLabelValues(values ...string) *LabeledMetric {
	return &LabeledMetric{
		rec:    v.rec,
		name:   v.name,
		labels: append([]string(nil), values...),
	}
}

// LabeledMetric is one counter of a CounterVec.
type LabeledMetric struct {
	rec    *Recorder
	name   string
	labels []string
}

// Inc increments the counter by one.
func (m *LabeledMetric) Inc(ctx context.Context) {
	m.IncBy(ctx, 1)
}

// IncBy increments the counter by value.
func (m *LabeledMetric) IncBy(ctx context.Context, value uint64) {
	m.rec.emit(ctx, entities.MetricUpdate{
		Metric: m.name,
		Op:     entities.MetricOpIncrementCounterVec,
		Labels: m.labels,
		Value:  value,
	})
}

// Histogram records durations in nanoseconds.
type Histogram struct {
	rec  *Recorder
	name string
}

// Observe records value nanoseconds.
func (h *Histogram) Observe(ctx context.Context, value uint64) {
	h.rec.emit(ctx, entities.MetricUpdate{
		Metric: h.name,
		Op:     entities.MetricOpObserveHistogram,
		Value:  value,
	})
}

// ObserveSince records the time elapsed since start.
func (h *Histogram) ObserveSince(ctx context.Context, start time.Time) {
	elapsed := time.Since(start)
	if elapsed < 0 {
		elapsed = 0
	}
	h.Observe(ctx, uint64(elapsed.Nanoseconds()))
}

// emit drops updates that fail to encode; handles have no error path.
func (r *Recorder) emit(ctx context.Context, update entities.MetricUpdate) {
	if r == nil {
		return
	}
	if err := r.Emit(ctx, update); err != nil {
		r.logger.DebugContext(ctx, "dropping metric update", "metric", update.Metric, "error", err)
	}
}
