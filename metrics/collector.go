package metrics

import (
	"context"
	"log/slog"
	"slices"

	rlog "github.com/reglet-dev/reglet-extensions/log"
)

// Collector is a slog.Handler that applies metric events to a Registry and
// forwards every other record to the next handler.
type Collector struct {
	registry *Registry
	next     slog.Handler
	attrs    []slog.Attr
}

// NewCollector creates a Collector. next may be nil to discard other records.
func NewCollector(registry *Registry, next slog.Handler) *Collector {
	return &Collector{registry: registry, next: next}
}

// Enabled reports true for trace records so metric events are never
// filtered before Handle sees them.
func (c *Collector) Enabled(ctx context.Context, level slog.Level) bool {
	if level <= rlog.LevelTrace {
		return true
	}
	return c.next != nil && c.next.Enabled(ctx, level)
}

// Handle applies a metric event, or forwards the record.
func (c *Collector) Handle(ctx context.Context, record slog.Record) error {
	if encoded, ok := c.metricEvent(record); ok {
		update, err := DecodeUpdate(encoded)
		if err != nil {
			return err
		}
		return c.registry.Apply(update)
	}
	if c.next == nil || !c.next.Enabled(ctx, record.Level) {
		return nil
	}
	return c.next.Handle(ctx, record)
}

func (c *Collector) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *c
	clone.attrs = append(slices.Clone(c.attrs), attrs...)
	if c.next != nil {
		clone.next = c.next.WithAttrs(attrs)
	}
	return &clone
}

func (c *Collector) WithGroup(name string) slog.Handler {
	clone := *c
	if c.next != nil {
		clone.next = c.next.WithGroup(name)
	}
	return &clone
}

func (c *Collector) metricEvent(record slog.Record) (string, bool) {
	var target, encoded string
	visit := func(a slog.Attr) bool {
		switch a.Key {
		case TargetKey:
			target = a.Value.String()
		case UpdateOpKey:
			encoded = a.Value.String()
		}
		return true
	}
	for _, a := range c.attrs {
		visit(a)
	}
	record.Attrs(visit)
	return encoded, target == Target && encoded != ""
}

var _ slog.Handler = (*Collector)(nil)
