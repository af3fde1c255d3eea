package entities

// MetricOp is the kind of runtime metric update.
type MetricOp string

const (
	// MetricOpIncrementCounter adds Value to a plain counter.
	MetricOpIncrementCounter MetricOp = "increment_counter"

	// MetricOpIncrementCounterVec adds Value to the counter selected by Labels.
	MetricOpIncrementCounterVec MetricOp = "increment_counter_vec"

	// MetricOpObserveHistogram records Value (nanoseconds) in a histogram.
	MetricOpObserveHistogram MetricOp = "observe_histogram"
)

// MetricUpdate is a single metric change emitted by sandboxed code and
// applied by the client that owns the metric registry.
type MetricUpdate struct {
	Metric string   `json:"metric" msgpack:"metric" validate:"required"`
	Op     MetricOp `json:"op" msgpack:"op" validate:"required,oneof=increment_counter increment_counter_vec observe_histogram"`
	Labels []string `json:"labels,omitempty" msgpack:"labels,omitempty"`
	Value  uint64   `json:"value" msgpack:"value"`
}
