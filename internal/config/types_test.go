// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestBinaryFilePath_Validate(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		value   BinaryFilePath
		wantErr bool
	}{
		"empty is valid":       {"", false},
		"path is valid":        {"/usr/local/bin/pmtiles", false},
		"bare name is valid":   {"tippecanoe", false},
		"whitespace only":      {"   ", true},
		"tabs and spaces only": {" \t ", true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.value.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidBinaryFilePath) {
				t.Errorf("expected ErrInvalidBinaryFilePath, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDuration_Validate(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		value   Duration
		wantErr bool
	}{
		"empty is valid":   {"", false},
		"seconds":          {"5s", false},
		"milliseconds":     {"500ms", false},
		"compound":         {"1m30s", false},
		"negative":         {"-1s", true},
		"bare number":      {"5", true},
		"not a duration":   {"soon", true},
		"whitespace value": {" 5s", true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.value.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("expected ErrInvalidDuration, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDuration_Value(t *testing.T) {
	t.Parallel()

	if got := Duration("5s").Value(time.Second); got != 5*time.Second {
		t.Errorf("Value = %v, want 5s", got)
	}
	if got := Duration("").Value(time.Second); got != time.Second {
		t.Errorf("empty Value = %v, want fallback 1s", got)
	}
	if got := Duration("junk").Value(2 * time.Second); got != 2*time.Second {
		t.Errorf("invalid Value = %v, want fallback 2s", got)
	}
}

func TestServeConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := DefaultConfig().Serve
	if err := valid.Validate(); err != nil {
		t.Fatalf("default serve config should validate: %v", err)
	}

	t.Run("port zero", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.Port = 0
		if err := c.Validate(); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("empty origin entry", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.Origins = []string{"https://a.example", ""}
		if err := c.Validate(); !errors.Is(err, ErrInvalidOrigins) {
			t.Errorf("expected ErrInvalidOrigins, got %v", err)
		}
	})

	t.Run("wildcard mixed with origins", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.Origins = []string{"*", "https://a.example"}
		if err := c.Validate(); !errors.Is(err, ErrInvalidOrigins) {
			t.Errorf("expected ErrInvalidOrigins, got %v", err)
		}
	})

	t.Run("specific origins only", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.Origins = []string{"https://a.example", "https://b.example"}
		if err := c.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestConfig_ValidateNamesField(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Tools.Pmtiles = "   "

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InvalidConfigError, got %T", err)
	}
	if ice.Field != "tools.pmtiles" {
		t.Errorf("field = %q, want tools.pmtiles", ice.Field)
	}
}
