// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound is the sentinel error wrapped by NotFoundError when a
	// binary cannot be resolved.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInputNotFound is the sentinel error wrapped by NotFoundError when a
	// declared input path does not exist.
	ErrInputNotFound = errors.New("input not found")
)

type (
	// NotFoundError reports a missing binary or input path, detected before
	// any process is spawned.
	NotFoundError struct {
		// Path is the binary name or input path that failed to resolve.
		Path string
		// Input is true when the missing path is a tool input rather than
		// the binary itself.
		Input bool
	}

	// ToolError reports a tool that was spawned but exited non-zero. It
	// carries the rendered command line and the captured stderr verbatim so
	// failures are debuggable without re-running the tool manually.
	ToolError struct {
		// Binary is the resolved binary path.
		Binary string
		// Args is the argument list the tool was invoked with.
		Args []string
		// ExitCode is the tool's exit status.
		ExitCode ExitCode
		// Stderr is the captured error stream, verbatim.
		Stderr string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Input {
		return fmt.Sprintf("input not found: %s", e.Path)
	}
	return fmt.Sprintf("tool not found: %s", e.Path)
}

// Unwrap returns the matching sentinel for errors.Is chains.
func (e *NotFoundError) Unwrap() error {
	if e.Input {
		return ErrInputNotFound
	}
	return ErrToolNotFound
}

// Error implements the error interface. The message includes the full
// rendered command line (argument lists never contain secrets; credentials
// flow through the environment) and the tool's stderr.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %s", e.CommandLine(), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// CommandLine renders the invocation as a single space-joined string.
func (e *ToolError) CommandLine() string {
	return strings.Join(append([]string{e.Binary}, e.Args...), " ")
}
