// SPDX-License-Identifier: MPL-2.0

//go:build windows

package server

import "os"

// terminateProcess stops a process. Windows has no SIGTERM equivalent for
// arbitrary processes, so this kills outright.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}
