// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
)

type (
	// Runner invokes one external binary with argument lists built by the
	// wrapping packages. The zero value is not usable; construct with New.
	Runner struct {
		binary string
		logger *log.Logger
	}

	// Invocation describes a single tool run.
	Invocation struct {
		// Args is the full argument list, excluding the binary name.
		Args []string
		// Inputs are paths that must exist before the process is spawned.
		// A missing path aborts the run with a NotFoundError.
		Inputs []string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env holds extra KEY=VALUE pairs appended to the inherited
		// environment. The parent environment always passes through so
		// ambient cloud credentials reach the child untouched.
		Env []string
		// Stdout, when set, receives standard output as it is produced
		// instead of being captured into the Result.
		Stdout io.Writer
	}
)

// New creates a Runner for the given binary name or path.
func New(binary string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{binary: binary, logger: logger}
}

// Binary returns the configured binary name or path.
func (r *Runner) Binary() string { return r.binary }

// Resolve looks up the binary on PATH (or verifies an explicit path) without
// spawning anything. It returns the resolved absolute path.
func (r *Runner) Resolve() (string, error) {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return "", &NotFoundError{Path: r.binary}
	}
	if !filepath.IsAbs(path) {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
	}
	return path, nil
}

// Run executes the binary with the given invocation and captures its outcome.
// Validation happens strictly before the spawn: binary resolution first, then
// input existence. A non-zero exit produces a *ToolError; the Result is still
// returned alongside it so callers can inspect partial output.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	path, err := r.Resolve()
	if err != nil {
		return nil, err
	}

	for _, input := range inv.Inputs {
		if _, statErr := os.Stat(input); statErr != nil {
			return nil, &NotFoundError{Path: input, Input: true}
		}
	}

	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)

	var stdout, stderr bytes.Buffer
	if inv.Stdout != nil {
		cmd.Stdout = inv.Stdout
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	r.logger.Debug("invoking tool", "binary", path, "args", inv.Args)

	runErr := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = ExitCode(exitErr.ExitCode())
			return result, &ToolError{
				Binary:   r.binary,
				Args:     inv.Args,
				ExitCode: result.ExitCode,
				Stderr:   result.Stderr,
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("tool %s interrupted: %w", r.binary, ctxErr)
		}
		return result, fmt.Errorf("failed to run %s: %w", r.binary, runErr)
	}

	return result, nil
}
