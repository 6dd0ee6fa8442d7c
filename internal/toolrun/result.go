// SPDX-License-Identifier: MPL-2.0

package toolrun

// Result holds the outcome of a completed tool invocation.
type Result struct {
	// ExitCode is the process exit status (0 on success).
	ExitCode ExitCode
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Succeeded reports whether the tool exited with status zero.
func (r *Result) Succeeded() bool { return r.ExitCode.IsSuccess() }
