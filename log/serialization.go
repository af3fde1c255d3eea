package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// LogMessageWire is the JSON wire format for a log message from guest to host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// NewLogMessageWire captures a record in wire form.
func NewLogMessageWire(record slog.Record) LogMessageWire {
	msg := LogMessageWire{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}
	if record.Level == LevelTrace {
		msg.Level = "TRACE"
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = append(msg.Attrs, ToAttrWire(attr))
		return true
	})
	return msg
}

// SlogLevel returns the message level, defaulting to info when unknown.
func (m LogMessageWire) SlogLevel() slog.Level {
	level, err := ParseLevel(m.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// SlogAttrs converts the wire attributes back to slog attributes.
func (m LogMessageWire) SlogAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(m.Attrs))
	for _, attr := range m.Attrs {
		attrs = append(attrs, FromAttrWire(attr))
	}
	return attrs
}

// ToAttrWire converts a slog.Attr to LogAttrWire.
func ToAttrWire(attr slog.Attr) LogAttrWire {
	wire := LogAttrWire{
		Key: attr.Key,
	}
	attr.Value = attr.Value.Resolve()

	switch attr.Value.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = attr.Value.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = strconv.FormatInt(attr.Value.Int64(), 10)
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = strconv.FormatUint(attr.Value.Uint64(), 10)
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = strconv.FormatBool(attr.Value.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", attr.Value.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = attr.Value.Duration().String()
	case slog.KindAny:
		v := attr.Value.Any()
		switch {
		case v == nil:
			wire.Type = "any"
			wire.Value = "<nil>"
		case isError(v):
			wire.Type = "error"
			wire.Value = v.(error).Error()
		default:
			if data, err := json.Marshal(v); err == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", v)
			}
		}
	case slog.KindGroup:
		// Groups are not nested on the wire.
		wire.Type = "group"
		wire.Value = fmt.Sprintf("%v", attr.Value.Group())
	case slog.KindLogValuer:
		return ToAttrWire(slog.Attr{Key: attr.Key, Value: attr.Value.LogValuer().LogValue()})
	default:
		wire.Type = "any"
		wire.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return wire
}

// FromAttrWire converts a wire attribute back to a slog.Attr. Values that do
// not parse as their declared type are kept as strings.
func FromAttrWire(attr LogAttrWire) slog.Attr {
	switch attr.Type {
	case "string":
		return slog.String(attr.Key, attr.Value)
	case "int64":
		if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
			return slog.Int64(attr.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(attr.Value, 10, 64); err == nil {
			return slog.Uint64(attr.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(attr.Value); err == nil {
			return slog.Bool(attr.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
			return slog.Float64(attr.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, attr.Value); err == nil {
			return slog.Time(attr.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(attr.Value); err == nil {
			return slog.Duration(attr.Key, v)
		}
	case "error":
		return slog.Any(attr.Key, fmt.Errorf("%s", attr.Value))
	case "json":
		return slog.Any(attr.Key, json.RawMessage(attr.Value))
	}
	return slog.String(attr.Key, attr.Value)
}

func isError(v any) bool {
	_, ok := v.(error)
	return ok
}
