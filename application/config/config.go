// Package config loads and validates the extension host configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	rlog "github.com/reglet-dev/reglet-extensions/log"
)

const (
	// DefaultModuleName is the host module guests import functions from.
	DefaultModuleName = "reglet_host"

	// DefaultMaxRequestSize bounds a single host function payload. It is
	// also the largest payload a JSON host function accepts, so it is the
	// ceiling for runtime.max_request_size.
	DefaultMaxRequestSize = 1 * 1024 * 1024

	// DefaultMemoryLimitPages caps guest memory at 16 MiB.
	DefaultMemoryLimitPages = 256

	// DefaultPicosPerGas maps one unit of gas to one nanosecond of ref time.
	DefaultPicosPerGas = 1000
)

// Converter names accepted in QueryConfig.Converter.
const (
	ConverterFixed   = "fixed"
	ConverterRefTime = "ref_time"
)

// Config is the root of the host configuration file.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	Runtime RuntimeConfig `yaml:"runtime" json:"runtime"`
	Query   QueryConfig   `yaml:"query" json:"query"`
}

// RuntimeConfig configures the WebAssembly runtime.
type RuntimeConfig struct {
	ModuleName       string `yaml:"module_name" json:"module_name" validate:"required" jsonschema:"default=reglet_host"`
	MaxRequestSize   int    `yaml:"max_request_size" json:"max_request_size" validate:"gt=0,lte=1048576" jsonschema:"maximum=1048576"`
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" json:"memory_limit_pages" validate:"gt=0,lte=65536"`
}

// QueryConfig configures query execution.
type QueryConfig struct {
	Converter    string          `yaml:"converter" json:"converter" validate:"oneof=fixed ref_time" jsonschema:"enum=fixed,enum=ref_time"`
	MaxWeight    entities.Weight `yaml:"max_weight" json:"max_weight"`
	MaxQuerySize int             `yaml:"max_query_size" json:"max_query_size" validate:"gt=0"`
	PicosPerGas  uint64          `yaml:"picos_per_gas" json:"picos_per_gas" validate:"gt=0"`
	Refund       bool            `yaml:"refund" json:"refund"`
}

// LogConfig configures the host logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=trace debug info warn error" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json" jsonschema:"enum=text,enum=json"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Runtime: RuntimeConfig{
			ModuleName:       DefaultModuleName,
			MaxRequestSize:   DefaultMaxRequestSize,
			MemoryLimitPages: DefaultMemoryLimitPages,
		},
		Query: QueryConfig{
			Converter:    ConverterRefTime,
			MaxQuerySize: entities.DefaultMaxQuerySize,
			PicosPerGas:  DefaultPicosPerGas,
			MaxWeight:    entities.NewWeight(1_000_000_000_000, 5*1024*1024),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Logger builds the logger described by c.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := rlog.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return rlog.New(w, rlog.WithLevel(level), rlog.WithFormat(rlog.Format(c.Format))), nil
}
