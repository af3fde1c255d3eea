// Package log builds the structured loggers used by the extension host and
// converts log records to and from the JSON form guests send over the
// log_message host function.
package log

import (
	"io"
	"log/slog"
)

// Format selects the slog handler used by New.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// HandlerOption configures a logger built by New.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	format    Format
	level     slog.Level
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:  slog.LevelInfo,
		format: FormatText,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithFormat selects text or JSON output. Unknown formats fall back to text.
func WithFormat(format Format) HandlerOption {
	return func(c *handlerConfig) {
		c.format = format
	}
}

// New creates a logger writing to w. It does not replace slog's default.
func New(w io.Writer, opts ...HandlerOption) *slog.Logger {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       cfg.level,
		AddSource:   cfg.addSource,
		ReplaceAttr: replaceLevelName,
	}

	var handler slog.Handler
	if cfg.format == FormatJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// replaceLevelName prints LevelTrace as "TRACE" instead of "DEBUG-4".
func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
