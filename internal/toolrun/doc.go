// SPDX-License-Identifier: MPL-2.0

// Package toolrun invokes pre-built external executables and captures their
// outcome.
//
// The contract is deliberately narrow: a binary path plus an argument list go
// in, and an exit status with captured stdout/stderr comes out. Runner never
// interprets tool-specific output beyond an optional JSON decode of stdout.
// Arguments are passed directly to the process without shell interpolation.
//
// Validation is fail-fast: the binary must resolve (PATH lookup or absolute
// path) and declared input files must exist before any process is spawned.
// Failed invocations are never retried here: tools may perform in-place
// edits, so retry policy belongs to the caller.
package toolrun
