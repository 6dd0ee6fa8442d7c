// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tilebridge/internal/pmtiles"
	"tilebridge/internal/server"
	"tilebridge/internal/toolrun"

	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveHost    string
	serveOrigins []string
	serveDetach  bool

	serveCmd = &cobra.Command{
		Use:   "serve <directory|archive>",
		Short: "Serve tile archives over local HTTP",
		Long: `Serve tile archives over local HTTP with CORS and byte-range support.

A directory argument starts the built-in static server: every file under
the directory is served with the CORS headers and Range semantics that
browser map libraries need to read archives in place.

An archive file argument spawns the external archive tool's own serve
subcommand as a managed child process, which additionally decodes
individual tiles at /<name>/{z}/{x}/{y}.

The server runs in the foreground until interrupted. With --detach an
archive-tool server is left running after tilebridge exits.`,
		Args: cobra.ExactArgs(1),
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default from config)")
	serveCmd.Flags().StringArrayVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable; default from config)")
	serveCmd.Flags().BoolVarP(&serveDetach, "detach", "d", false, "leave the server running after exit (archive files only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	app := getApp()
	cfg := getConfig()

	port := servePort
	if port == 0 {
		port = cfg.Serve.Port
	}
	host := serveHost
	if host == "" {
		host = cfg.Serve.Host
	}
	origins := serveOrigins
	if len(origins) == 0 {
		origins = cfg.Serve.Origins
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *server.Record
	if info.IsDir() {
		if serveDetach {
			return fmt.Errorf("serve: --detach requires an archive file; the static server lives in this process")
		}
		rec, err = app.Servers.StartStatic(ctx, server.StaticConfig{
			Root:            args[0],
			Port:            port,
			Host:            host,
			Origins:         origins,
			ShutdownTimeout: cfg.Serve.ShutdownTimeout.Value(0),
			Logger:          app.Logger,
		})
	} else {
		binary, procArgs, cmdErr := app.Archive.ServeCommand(pmtiles.ServeOptions{
			Path: args[0],
			Port: port,
			Cors: strings.Join(origins, ","),
		})
		if cmdErr != nil {
			return cmdErr
		}
		rec, err = app.Servers.StartProcess(ctx, server.ProcessConfig{
			Binary: binary,
			Args:   procArgs,
			Port:   port,
			Host:   host,
			Logger: app.Logger,
		})
	}
	if err != nil {
		return wrapToolExit(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Serving ")+args[0]+SuccessStyle.Render(" at ")+URLStyle.Render(rec.URL))

	if serveDetach {
		// The child process keeps the port; only the tracking record dies
		// with this CLI invocation.
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Detached. Stop it by killing the archive tool process."))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Press Ctrl+C to stop."))
	<-ctx.Done()
	stop()

	// The interrupt that unblocked us also cancelled the command context.
	// Shutdown gets a detached context so in-flight requests and child
	// processes still get their configured grace window.
	if err := app.Servers.StopAll(context.WithoutCancel(cmd.Context())); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// wrapToolExit converts a child tool failure into an ExitError so the shell
// sees the tool's own exit code.
func wrapToolExit(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *toolrun.ToolError
	if errors.As(err, &toolErr) {
		return &ExitError{Code: toolErr.ExitCode, Err: err}
	}
	return err
}
