package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace is below debug. Metric updates are emitted at this level.
const LevelTrace = slog.Level(-8)

// ParseLevel accepts "trace" in addition to the names slog understands.
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(strings.TrimSpace(s), "trace") {
		return LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}
