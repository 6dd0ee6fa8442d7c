// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Manager is the lifecycle controller for local servers. It owns the
// Registry and encapsulates the start/stop/status decision tree so command
// handlers never touch server handles directly.
type Manager struct {
	registry *Registry
	logger   *log.Logger
}

// NewManager creates a Manager around a registry. A nil registry gets a
// fresh empty one.
func NewManager(registry *Registry, logger *log.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{registry: registry, logger: logger.With("component", "server-manager")}
}

// StartStatic validates, starts, and registers an in-process static range
// server. A port with a live tracked server is rejected with
// PortTrackedError before any bind attempt; a bind failure on an untracked
// port surfaces as PortUnavailableError.
func (m *Manager) StartStatic(ctx context.Context, cfg StaticConfig) (*Record, error) {
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}

	if existing, ok := m.registry.Lookup(cfg.Port); ok && existing.Alive() {
		return nil, &PortTrackedError{Port: cfg.Port}
	}

	srv, err := NewStatic(cfg)
	if err != nil {
		return nil, err
	}

	if err := srv.Start(ctx); err != nil {
		return nil, err
	}

	rec := &Record{
		Port: cfg.Port,
		Kind: KindStatic,
		Root: cfg.Root,
		URL:  srv.URL(),
		h:    srv,
	}
	if err := m.registry.Register(rec); err != nil {
		// Lost a race to another starter; release our listener.
		_ = srv.Stop(ctx)
		return nil, err
	}
	return rec, nil
}

// StartProcess validates, spawns, and registers an external tile-server
// process.
func (m *Manager) StartProcess(ctx context.Context, cfg ProcessConfig) (*Record, error) {
	if cfg.Logger == nil {
		cfg.Logger = m.logger
	}

	if existing, ok := m.registry.Lookup(cfg.Port); ok && existing.Alive() {
		return nil, &PortTrackedError{Port: cfg.Port}
	}

	proc, err := NewProcess(cfg)
	if err != nil {
		return nil, err
	}

	if err := proc.Start(ctx); err != nil {
		return nil, err
	}

	rec := &Record{
		Port:    cfg.Port,
		Kind:    KindProcess,
		Command: append([]string{cfg.Binary}, cfg.Args...),
		URL:     proc.URL(),
		h:       proc,
	}
	if err := m.registry.Register(rec); err != nil {
		_ = proc.Stop(ctx)
		return nil, err
	}
	return rec, nil
}

// Stop terminates the tracked server on a port. The registry entry is
// removed even when the underlying shutdown errors; the error is returned
// for reporting but the record is gone either way. A port with no tracked
// server returns (false, nil); "nothing to do" is not a failure.
func (m *Manager) Stop(ctx context.Context, port int) (bool, error) {
	rec, ok := m.registry.Lookup(port)
	if !ok {
		return false, nil
	}

	err := rec.h.Stop(ctx)
	if err != nil {
		m.logger.Error("error stopping server", "port", port, "kind", rec.Kind, "error", err)
	}
	m.registry.Remove(port)
	return true, err
}

// StopAll stops every tracked server from a registry snapshot. A failure on
// one entry never prevents attempting the rest; the errors are joined.
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	for _, rec := range m.registry.All() {
		if _, err := m.Stop(ctx, rec.Port); err != nil {
			errs = append(errs, fmt.Errorf("port %d: %w", rec.Port, err))
		}
	}
	return errors.Join(errs...)
}

// Status reports whether a live tracked server exists on a port. A registry
// entry whose resource has died behind our back is pruned and reported as
// not alive.
func (m *Manager) Status(port int) bool {
	rec, ok := m.registry.Lookup(port)
	if !ok {
		return false
	}
	if !rec.Alive() {
		m.logger.Warn("pruning dead server entry", "port", port, "kind", rec.Kind)
		m.registry.Remove(port)
		return false
	}
	return true
}

// Records returns a snapshot of all tracked servers, sorted by port.
func (m *Manager) Records() []*Record {
	return m.registry.All()
}
