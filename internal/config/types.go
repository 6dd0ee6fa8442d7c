// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidDuration is returned when a Duration value cannot be parsed or is negative.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidPort is returned when a port is outside the valid TCP range.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidOrigins is returned when the CORS origin list is malformed.
	ErrInvalidOrigins = errors.New("invalid origins")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// BinaryFilePath is a filesystem path to an external executable.
	// The zero value ("") is valid and means "resolve the default binary
	// name on PATH". Non-zero values must not be whitespace-only.
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only. It wraps ErrInvalidBinaryFilePath for
	// errors.Is() compatibility.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// Duration is a Go duration string as it appears in config files
	// (e.g. "5s", "500ms"). The zero value ("") is valid and means
	// "use the built-in default".
	Duration string

	// InvalidDurationError is returned when a Duration value cannot be
	// parsed or is negative. It wraps ErrInvalidDuration.
	InvalidDurationError struct {
		Value Duration
		Cause error
	}

	// ToolsConfig points at the external executables.
	ToolsConfig struct {
		Pmtiles    BinaryFilePath `mapstructure:"pmtiles"`
		Tippecanoe BinaryFilePath `mapstructure:"tippecanoe"`
	}

	// ServeConfig holds the defaults for the local tile server.
	ServeConfig struct {
		Port            int      `mapstructure:"port"`
		Host            string   `mapstructure:"host"`
		Origins         []string `mapstructure:"origins"`
		ShutdownTimeout Duration `mapstructure:"shutdown_timeout"`
	}

	// GenerateConfig holds the defaults for tile generation.
	GenerateConfig struct {
		Layer         string   `mapstructure:"layer"`
		WatchDebounce Duration `mapstructure:"watch_debounce"`
	}

	// Config is the root configuration.
	Config struct {
		Verbose  bool           `mapstructure:"verbose"`
		Tools    ToolsConfig    `mapstructure:"tools"`
		Serve    ServeConfig    `mapstructure:"serve"`
		Generate GenerateConfig `mapstructure:"generate"`
	}

	// InvalidConfigError aggregates the first validation failure with the
	// field path where it occurred. It wraps ErrInvalidConfig.
	InvalidConfigError struct {
		Field string
		Cause error
	}
)

func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("%v: %q is whitespace-only", ErrInvalidBinaryFilePath, string(e.Value))
}

func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("%v: %q: %v", ErrInvalidDuration, string(e.Value), e.Cause)
}

func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrInvalidConfig, e.Field, e.Cause)
}

func (e *InvalidConfigError) Unwrap() error { return e.Cause }

// Validate checks the path is either empty or has visible content.
func (p BinaryFilePath) Validate() error {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return &InvalidBinaryFilePathError{Value: p}
	}
	return nil
}

// Validate checks the value parses as a non-negative duration. Empty is valid.
func (d Duration) Validate() error {
	if d == "" {
		return nil
	}
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return &InvalidDurationError{Value: d, Cause: err}
	}
	if v < 0 {
		return &InvalidDurationError{Value: d, Cause: errors.New("must not be negative")}
	}
	return nil
}

// Value parses the duration, falling back to def when empty or invalid.
// Call Validate first when the distinction matters.
func (d Duration) Value(def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	v, err := time.ParseDuration(string(d))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// Validate checks the tool paths.
func (c *ToolsConfig) Validate() error {
	if err := c.Pmtiles.Validate(); err != nil {
		return &InvalidConfigError{Field: "tools.pmtiles", Cause: err}
	}
	if err := c.Tippecanoe.Validate(); err != nil {
		return &InvalidConfigError{Field: "tools.tippecanoe", Cause: err}
	}
	return nil
}

// Validate checks the serving defaults. The wildcard origin "*" must stand
// alone; mixing it with specific origins makes the intent ambiguous.
func (c *ServeConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &InvalidConfigError{
			Field: "serve.port",
			Cause: fmt.Errorf("%w: %d is outside 1-65535", ErrInvalidPort, c.Port),
		}
	}
	if err := c.ShutdownTimeout.Validate(); err != nil {
		return &InvalidConfigError{Field: "serve.shutdown_timeout", Cause: err}
	}

	hasWildcard := false
	for i, origin := range c.Origins {
		if strings.TrimSpace(origin) == "" {
			return &InvalidConfigError{
				Field: fmt.Sprintf("serve.origins[%d]", i),
				Cause: fmt.Errorf("%w: entry is empty", ErrInvalidOrigins),
			}
		}
		if origin == "*" {
			hasWildcard = true
		}
	}
	if hasWildcard && len(c.Origins) > 1 {
		return &InvalidConfigError{
			Field: "serve.origins",
			Cause: fmt.Errorf("%w: wildcard \"*\" must not be combined with specific origins", ErrInvalidOrigins),
		}
	}
	return nil
}

// Validate checks the generation defaults.
func (c *GenerateConfig) Validate() error {
	if err := c.WatchDebounce.Validate(); err != nil {
		return &InvalidConfigError{Field: "generate.watch_debounce", Cause: err}
	}
	return nil
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Tools.Validate(); err != nil {
		return err
	}
	if err := c.Serve.Validate(); err != nil {
		return err
	}
	return c.Generate.Validate()
}

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Verbose: false,
		Tools: ToolsConfig{
			Pmtiles:    "",
			Tippecanoe: "",
		},
		Serve: ServeConfig{
			Port:            8080,
			Host:            "localhost",
			Origins:         []string{"*"},
			ShutdownTimeout: "5s",
		},
		Generate: GenerateConfig{
			Layer:         "",
			WatchDebounce: "500ms",
		},
	}
}
