// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, `echo "hello stdout"
echo "hello stderr" >&2`)

	r := New(tool, nil)
	result, err := r.Run(context.Background(), Invocation{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Succeeded() {
		t.Errorf("expected success, got exit code %s", result.ExitCode)
	}
	if got := strings.TrimSpace(result.Stdout); got != "hello stdout" {
		t.Errorf("stdout = %q, want %q", got, "hello stdout")
	}
	if got := strings.TrimSpace(result.Stderr); got != "hello stderr" {
		t.Errorf("stderr = %q, want %q", got, "hello stderr")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, `echo "bad input" >&2
exit 1`)

	r := New(tool, nil)
	result, err := r.Run(context.Background(), Invocation{Args: []string{"convert", "in.pmtiles"}})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %T: %v", err, err)
	}
	if toolErr.ExitCode != 1 {
		t.Errorf("exit code = %s, want 1", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Stderr, "bad input") {
		t.Errorf("stderr %q should contain %q", toolErr.Stderr, "bad input")
	}
	if !strings.Contains(toolErr.Error(), "convert in.pmtiles") {
		t.Errorf("error %q should include the rendered argument list", toolErr.Error())
	}
	if result == nil || result.ExitCode != 1 {
		t.Error("result should still carry the exit code alongside the error")
	}
}

func TestRunMissingBinaryFailsFast(t *testing.T) {
	t.Parallel()

	r := New("definitely-not-a-real-tool-5481", nil)
	_, err := r.Run(context.Background(), Invocation{})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRunMissingInputFailsBeforeSpawn(t *testing.T) {
	t.Parallel()

	// The script would create a marker file if it ever ran.
	marker := filepath.Join(t.TempDir(), "ran")
	tool := writeScript(t, "touch "+marker)

	r := New(tool, nil)
	_, err := r.Run(context.Background(), Invocation{
		Inputs: []string{filepath.Join(t.TempDir(), "missing.pmtiles")},
	})
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("tool must not be spawned when an input is missing")
	}
}

func TestRunInheritsEnvironment(t *testing.T) {
	tool := writeScript(t, `echo "$TILEBRIDGE_TEST_CRED"`)

	t.Setenv("TILEBRIDGE_TEST_CRED", "ambient-secret")

	r := New(tool, nil)
	result, err := r.Run(context.Background(), Invocation{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.TrimSpace(result.Stdout); got != "ambient-secret" {
		t.Errorf("child did not inherit environment: got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes JSON object output", func(t *testing.T) {
		t.Parallel()

		var v map[string]any
		ok, err := DecodeJSON(&Result{Stdout: `{"tile_type":"mvt","max_zoom":14}`}, &v)
		if err != nil {
			t.Fatalf("DecodeJSON failed: %v", err)
		}
		if !ok {
			t.Fatal("expected JSON to be recognized")
		}
		if v["tile_type"] != "mvt" {
			t.Errorf("tile_type = %v, want mvt", v["tile_type"])
		}
	})

	t.Run("passes through plain text", func(t *testing.T) {
		t.Parallel()

		var v map[string]any
		ok, err := DecodeJSON(&Result{Stdout: "plain text summary\n"}, &v)
		if err != nil {
			t.Fatalf("DecodeJSON failed: %v", err)
		}
		if ok {
			t.Error("plain text must not be treated as JSON")
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		var v map[string]any
		if _, err := DecodeJSON(&Result{Stdout: `{"broken":`}, &v); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}
