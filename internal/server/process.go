// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// defaultStartupTimeout bounds the wait for a spawned process to start
	// accepting connections on its port.
	defaultStartupTimeout = 5 * time.Second

	// readyPollInterval is the delay between readiness probes.
	readyPollInterval = 50 * time.Millisecond
)

type (
	// ProcessConfig holds the parameters for an externally spawned tile
	// server.
	ProcessConfig struct {
		// Binary is the executable name or path.
		Binary string
		// Args is the argument list passed to the binary.
		Args []string
		// Port is the port the process is expected to listen on.
		Port int
		// Host is the probe address. Empty defaults to loopback.
		Host string
		// StartupTimeout bounds the poll-until-ready wait. Zero or
		// negative values fall back to the default.
		StartupTimeout time.Duration
		// ShutdownTimeout bounds the wait for the process to exit after
		// a termination signal before it is force-killed.
		ShutdownTimeout time.Duration
		// Logger receives lifecycle events. nil falls back to the
		// package default logger.
		Logger *log.Logger
	}

	// ProcessServer owns one spawned tile-server OS process. Instances are
	// single-use.
	ProcessServer struct {
		cfg    ProcessConfig
		state  atomic.Int32
		logger *log.Logger

		cmd  *exec.Cmd
		done chan struct{}
		wait atomic.Pointer[error]
	}
)

// NewProcess creates a process server. The binary is resolved here so
// launch-argument problems fail before any process is spawned.
func NewProcess(cfg ProcessConfig) (*ProcessServer, error) {
	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return nil, fmt.Errorf("tile server binary %q: %w", cfg.Binary, err)
	}

	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &ProcessServer{
		cfg:    cfg,
		logger: logger.With("component", "process-server", "port", cfg.Port),
		done:   make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	return p, nil
}

// State returns the current lifecycle state.
func (p *ProcessServer) State() State { return State(p.state.Load()) }

// Alive reports whether the spawned process is still running.
func (p *ProcessServer) Alive() bool {
	if p.State() != StateRunning {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// URL returns the process server's base URL.
func (p *ProcessServer) URL() string { return baseURL(p.cfg.Port) }

// Start spawns the process and polls its port until it accepts connections
// or the startup timeout elapses. The child inherits the parent environment
// so ambient cloud credentials pass through untouched.
func (p *ProcessServer) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start process server in state %s", p.State())
	}

	p.cmd = exec.Command(p.cfg.Binary, p.cfg.Args...)
	p.cmd.Env = os.Environ()

	if err := p.cmd.Start(); err != nil {
		p.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to launch %s: %w", p.cfg.Binary, err)
	}

	go func() {
		err := p.cmd.Wait()
		p.wait.Store(&err)
		close(p.done)
	}()

	if err := p.waitReady(ctx); err != nil {
		p.state.Store(int32(StateFailed))
		_ = terminateProcess(p.cmd.Process)
		return err
	}

	p.state.Store(int32(StateRunning))
	p.logger.Info("tile server process started", "binary", p.cfg.Binary, "pid", p.cmd.Process.Pid)
	return nil
}

// waitReady polls the expected port until a TCP connect succeeds, the
// process dies, or the startup timeout elapses.
func (p *ProcessServer) waitReady(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	deadline := time.Now().Add(p.cfg.StartupTimeout)

	for {
		select {
		case <-p.done:
			return fmt.Errorf("tile server process exited during startup: %s", p.exitStatus())
		case <-ctx.Done():
			return fmt.Errorf("tile server startup interrupted: %w", ctx.Err())
		default:
		}

		conn, err := net.DialTimeout("tcp", addr, readyPollInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("tile server did not become ready on %s within %s", addr, p.cfg.StartupTimeout)
		}
		time.Sleep(readyPollInterval)
	}
}

// exitStatus renders the process exit outcome for error messages.
func (p *ProcessServer) exitStatus() string {
	if errPtr := p.wait.Load(); errPtr != nil && *errPtr != nil {
		return (*errPtr).Error()
	}
	return "exit status 0"
}

// Stop signals the process to terminate and waits up to the shutdown
// timeout before force-killing it. Safe to call more than once.
func (p *ProcessServer) Stop(ctx context.Context) error {
	for {
		current := p.State()
		switch current {
		case StateStopped, StateStopping, StateFailed:
			return nil
		case StateCreated, StateStarting:
			if p.state.CompareAndSwap(int32(current), int32(StateStopped)) {
				return nil
			}
		case StateRunning:
			if !p.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
				continue
			}
			err := p.doStop(ctx)
			p.state.Store(int32(StateStopped))
			return err
		default:
			return nil
		}
	}
}

// doStop performs the signal-wait-kill sequence.
func (p *ProcessServer) doStop(ctx context.Context) error {
	select {
	case <-p.done:
		// Already exited behind our back; nothing to signal.
		p.logger.Info("tile server process already exited")
		return nil
	default:
	}

	if err := terminateProcess(p.cmd.Process); err != nil {
		p.logger.Error("failed to signal tile server process", "error", err)
	}

	timer := time.NewTimer(p.cfg.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-ctx.Done():
		_ = p.cmd.Process.Kill()
		<-p.done
	case <-timer.C:
		p.logger.Warn("tile server ignored termination signal, killing", "pid", p.cmd.Process.Pid)
		_ = p.cmd.Process.Kill()
		<-p.done
	}

	p.logger.Info("tile server process stopped")
	return nil
}
