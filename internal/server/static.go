// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// defaultShutdownTimeout bounds graceful shutdown before it is abandoned.
	defaultShutdownTimeout = 5 * time.Second

	// defaultHost is the loopback interface local servers bind to.
	defaultHost = "127.0.0.1"
)

type (
	// StaticConfig holds the parameters for a static range server.
	StaticConfig struct {
		// Root is the directory to serve. Must exist and be a directory.
		Root string
		// Port is the caller-chosen listening port. Ports are never
		// auto-allocated; the registry key must be predictable.
		Port int
		// Host is the bind address. Empty defaults to loopback.
		Host string
		// Origins is the CORS allow-list. Empty means "*".
		Origins []string
		// ShutdownTimeout bounds graceful shutdown. Zero or negative
		// values fall back to the default.
		ShutdownTimeout time.Duration
		// Logger receives lifecycle and request-failure events. nil
		// falls back to the package default logger.
		Logger *log.Logger
	}

	// StaticServer serves files under a root directory over HTTP with
	// permissive CORS and byte-range support. Instances are single-use.
	StaticServer struct {
		cfg    StaticConfig
		state  atomic.Int32
		logger *log.Logger

		httpServer *http.Server
		listener   net.Listener
		serveDone  chan struct{}
	}
)

// NewStatic creates a static range server for the given config. The root
// directory is validated here so callers fail fast before any bind attempt.
func NewStatic(cfg StaticConfig) (*StaticServer, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("serve root %q: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("serve root %q is not a directory", cfg.Root)
	}

	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &StaticServer{
		cfg:       cfg,
		logger:    logger.With("component", "static-server", "port", cfg.Port),
		serveDone: make(chan struct{}),
	}
	s.state.Store(int32(StateCreated))
	return s, nil
}

// State returns the current lifecycle state.
func (s *StaticServer) State() State { return State(s.state.Load()) }

// Alive reports whether the server is accepting requests.
func (s *StaticServer) Alive() bool { return s.State() == StateRunning }

// URL returns the server's base URL.
func (s *StaticServer) URL() string { return baseURL(s.cfg.Port) }

// Start binds the listener and begins serving in a background goroutine.
// It returns once the listener is bound, so a nil return means the port is
// ours and requests will be accepted. Bind failures surface as
// PortUnavailableError and leave the server in StateFailed.
func (s *StaticServer) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start static server in state %s", s.State())
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return &PortUnavailableError{Port: s.cfg.Port, Cause: err}
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:     newStaticHandler(s.cfg.Root, s.cfg.Origins, s.logger),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go s.serve()

	s.state.Store(int32(StateRunning))
	s.logger.Info("static server started", "root", s.cfg.Root, "url", s.URL())
	return nil
}

// serve blocks on the accept loop until shutdown.
func (s *StaticServer) serve() {
	defer close(s.serveDone)

	err := s.httpServer.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		s.logger.Error("serve error", "error", err)
	}
}

// Stop gracefully shuts the server down, waiting up to the configured
// timeout for in-flight requests. Safe to call more than once; calls after
// the first are no-ops.
func (s *StaticServer) Stop(ctx context.Context) error {
	for {
		current := s.State()
		switch current {
		case StateStopped, StateStopping, StateFailed:
			return nil
		case StateCreated, StateStarting:
			if s.state.CompareAndSwap(int32(current), int32(StateStopped)) {
				return nil
			}
		case StateRunning:
			if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
				continue
			}
			shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
			defer cancel()

			err := s.httpServer.Shutdown(shutdownCtx)
			if err != nil {
				// Graceful window elapsed; force the listener closed.
				_ = s.httpServer.Close()
			}
			<-s.serveDone
			s.state.Store(int32(StateStopped))
			s.logger.Info("static server stopped")
			return err
		default:
			return nil
		}
	}
}
