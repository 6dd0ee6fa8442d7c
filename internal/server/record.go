// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"fmt"
)

const (
	// KindStatic identifies an in-process static range server.
	KindStatic Kind = iota
	// KindProcess identifies an externally spawned tile-server process.
	KindProcess
)

type (
	// Kind distinguishes the two server variants a Record can own.
	Kind int

	// handle is the ownership token a Record holds for its underlying
	// resource. Each variant carries its own stop operation; the Manager
	// never inspects the concrete type.
	handle interface {
		// Stop releases the resource. Safe to call more than once.
		Stop(ctx context.Context) error
		// Alive reports whether the resource is still up.
		Alive() bool
	}

	// Record is one running local server tracked by the Registry.
	Record struct {
		// Port is the listening port and the registry key.
		Port int
		// Kind tags which variant this record owns.
		Kind Kind
		// Root is the served directory (static servers only).
		Root string
		// Command is the binary plus argument list (process servers only).
		Command []string
		// URL is the derived base URL, fixed at creation.
		URL string

		// h exclusively owns the underlying server or process. It is
		// released exactly once, by the Manager's stop path.
		h handle
	}
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Alive reports whether the record's underlying resource is still up.
func (r *Record) Alive() bool {
	return r.h != nil && r.h.Alive()
}

// baseURL derives the immutable record URL for a port.
func baseURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
