// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package server

import (
	"os"
	"syscall"
)

// terminateProcess asks a process to shut down gracefully. The caller
// escalates to Kill if the process ignores the signal.
func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
