// SPDX-License-Identifier: MPL-2.0

// Package server hosts local tile-archive servers and tracks their lifecycle.
//
// Two server kinds exist: an in-process static file server with CORS and HTTP
// range support (for serving .pmtiles archives to local map clients), and an
// externally spawned tile-server process. Both move through the same state
// machine (created -> starting -> running -> stopping -> stopped, with failed
// on bind/launch errors) and register in a port-keyed Registry.
//
// The Registry is explicitly constructed and injected; there is no package
// global. All start/stop/status traffic funnels through a Manager, whose
// operations are serialized against the registry lock.
package server
