// SPDX-License-Identifier: MPL-2.0

package server

import (
	"errors"
	"fmt"
)

var (
	// ErrPortUnavailable is the sentinel error wrapped by PortUnavailableError:
	// the requested port is bound by something outside this registry.
	ErrPortUnavailable = errors.New("port unavailable")

	// ErrPortTracked is the sentinel error wrapped by PortTrackedError: the
	// port already has a live entry in our own registry. Distinct from
	// ErrPortUnavailable so callers can tell "ours" from "someone else's".
	ErrPortTracked = errors.New("port already tracked")

	// ErrNotRunning is the sentinel error wrapped by NotRunningError.
	ErrNotRunning = errors.New("server not running")
)

type (
	// PortUnavailableError reports a bind failure on a port this registry
	// does not track.
	PortUnavailableError struct {
		Port  int
		Cause error
	}

	// PortTrackedError reports an attempt to start a server on a port that
	// already has a live registry entry.
	PortTrackedError struct {
		Port int
	}

	// NotRunningError reports an operation against a port with no tracked
	// server. Callers treat it as a non-fatal "nothing to do" status.
	NotRunningError struct {
		Port int
	}
)

// Error implements the error interface.
func (e *PortUnavailableError) Error() string {
	return fmt.Sprintf("port %d unavailable: %v", e.Port, e.Cause)
}

// Unwrap returns ErrPortUnavailable for errors.Is chains.
func (e *PortUnavailableError) Unwrap() error { return ErrPortUnavailable }

// Error implements the error interface.
func (e *PortTrackedError) Error() string {
	return fmt.Sprintf("port %d already has a tracked server", e.Port)
}

// Unwrap returns ErrPortTracked for errors.Is chains.
func (e *PortTrackedError) Unwrap() error { return ErrPortTracked }

// Error implements the error interface.
func (e *NotRunningError) Error() string {
	return fmt.Sprintf("no tracked server on port %d", e.Port)
}

// Unwrap returns ErrNotRunning for errors.Is chains.
func (e *NotRunningError) Unwrap() error { return ErrNotRunning }
