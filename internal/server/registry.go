// SPDX-License-Identifier: MPL-2.0

package server

import (
	"slices"
	"sync"
)

// Registry tracks every server this process has started, keyed by port.
// All mutations are serialized behind a single mutex; All returns a snapshot
// so callers can iterate while starts and stops proceed concurrently.
type Registry struct {
	mu      sync.Mutex
	records map[int]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[int]*Record)}
}

// Register inserts a record. If the port already has a live entry the insert
// is rejected with a PortTrackedError; a dead entry (process exited behind
// our back) is pruned and overwritten.
func (reg *Registry) Register(rec *Record) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if existing, ok := reg.records[rec.Port]; ok {
		if existing.Alive() {
			return &PortTrackedError{Port: rec.Port}
		}
		delete(reg.records, rec.Port)
	}

	reg.records[rec.Port] = rec
	return nil
}

// Lookup returns the record for a port, or (nil, false) when absent.
func (reg *Registry) Lookup(port int) (*Record, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec, ok := reg.records[port]
	return rec, ok
}

// Remove deletes the entry for a port. Removing an absent port is a no-op.
func (reg *Registry) Remove(port int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.records, port)
}

// Len returns the number of tracked records.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.records)
}

// All returns a snapshot of the current records, sorted by port. Concurrent
// mutation after the snapshot is taken does not affect the returned slice.
func (reg *Registry) All() []*Record {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := make([]*Record, 0, len(reg.records))
	for _, rec := range reg.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b *Record) int { return a.Port - b.Port })
	return out
}
