// SPDX-License-Identifier: MPL-2.0

// Package pmtiles is a thin binding over the external tile-archive CLI.
//
// Every operation follows the same shape: a typed options struct validates
// locally, renders itself into an argument list, and runs through
// toolrun.Runner. The binding never parses archive bytes itself; the
// archive format is entirely the external tool's concern. Stdout is decoded
// as JSON when the subcommand emits it and passed through as text otherwise.
package pmtiles
