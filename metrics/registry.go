package metrics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
)

var (
	// ErrUnknownMetric is returned when an update names a metric the
	// registry does not know.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrMetricKind is returned when an update does not fit the metric kind.
	ErrMetricKind = errors.New("metric kind mismatch")
)

type metricKind int

const (
	kindCounter metricKind = iota
	kindCounterVec
	kindHistogram
)

type metricState struct {
	vec          map[string]uint64
	labels       []string
	observations []uint64
	kind         metricKind
	value        uint64
}

// Registry is the client-side store that metric updates are applied to.
// It is safe for concurrent use.
type Registry struct {
	metrics map[string]*metricState
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]*metricState)}
}

// RegisterCounter makes a counter known to the registry.
func (r *Registry) RegisterCounter(def CounterDefinition) {
	r.register(def.Name, &metricState{kind: kindCounter})
}

// RegisterCounterVec makes a labelled counter known to the registry.
func (r *Registry) RegisterCounterVec(def CounterVecDefinition) {
	r.register(def.Name, &metricState{
		kind:   kindCounterVec,
		labels: slices.Clone(def.Labels),
		vec:    make(map[string]uint64),
	})
}

// RegisterHistogram makes a histogram known to the registry.
func (r *Registry) RegisterHistogram(def HistogramDefinition) {
	r.register(def.Name, &metricState{kind: kindHistogram})
}

func (r *Registry) register(name string, state *metricState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.metrics[name]; !exists {
		r.metrics[name] = state
	}
}

// Apply applies update to the metric it names.
func (r *Registry) Apply(update entities.MetricUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.metrics[update.Metric]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, update.Metric)
	}

	switch update.Op {
	case entities.MetricOpIncrementCounter:
		if m.kind != kindCounter {
			return fmt.Errorf("%w: %q is not a counter", ErrMetricKind, update.Metric)
		}
		m.value += update.Value
	case entities.MetricOpIncrementCounterVec:
		if m.kind != kindCounterVec {
			return fmt.Errorf("%w: %q is not a counter vec", ErrMetricKind, update.Metric)
		}
		if len(update.Labels) != len(m.labels) {
			return fmt.Errorf("%w: %q expects %d label values, got %d",
				ErrMetricKind, update.Metric, len(m.labels), len(update.Labels))
		}
		m.vec[labelKey(update.Labels)] += update.Value
	case entities.MetricOpObserveHistogram:
		if m.kind != kindHistogram {
			return fmt.Errorf("%w: %q is not a histogram", ErrMetricKind, update.Metric)
		}
		m.observations = append(m.observations, update.Value)
	default:
		return fmt.Errorf("%w: unsupported op %q", ErrMetricKind, update.Op)
	}
	return nil
}

// CounterValue returns the value of a counter.
func (r *Registry) CounterValue(name string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	if !ok || m.kind != kindCounter {
		return 0, false
	}
	return m.value, true
}

// CounterVecValue returns the value of one counter of a CounterVec.
func (r *Registry) CounterVecValue(name string, labels ...string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	if !ok || m.kind != kindCounterVec {
		return 0, false
	}
	v, ok := m.vec[labelKey(labels)]
	return v, ok
}

// Observations returns a copy of the values recorded by a histogram.
func (r *Registry) Observations(name string) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[name]
	if !ok || m.kind != kindHistogram {
		return nil
	}
	return slices.Clone(m.observations)
}

func labelKey(values []string) string {
	return strings.Join(values, "\xff")
}
