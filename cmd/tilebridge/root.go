// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tilebridge/internal/config"
	"tilebridge/internal/issue"
	"tilebridge/internal/server"
	"tilebridge/internal/toolrun"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// resolvedConfig holds the configuration loaded by initRootConfig.
	resolvedConfig *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "tilebridge",
		Short: "Serve, generate, and manage tile archives",
		Long: TitleStyle.Render("tilebridge") + SubtitleStyle.Render(" - Serve, generate, and manage tile archives") + `

tilebridge bridges two external tools into one workflow: the archive
CLI (pmtiles) for reading, converting, and publishing tile archives,
and the tile generator (tippecanoe) for building archives from
GeoJSON feature data. It also hosts a local HTTP server with CORS and
byte-range support so archives can be previewed in a browser map.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Generate an archive:    tilebridge generate -o world.pmtiles features.geojson
  2. Serve it locally:       tilebridge serve .
  3. Inspect its header:     tilebridge archive show world.pmtiles

` + SubtitleStyle.Render("Examples:") + `
  tilebridge serve ./tiles --port 8080     Serve a directory with range support
  tilebridge serve world.pmtiles           Serve one archive via the archive tool
  tilebridge generate --watch -o out.pmtiles src.geojson
  tilebridge status 8080                   Probe a local server
  tilebridge config show                   Show effective configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tilebridge/config.cue)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main(); it only needs to happen once.
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		renderIssueCard(err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file and applies it to package state.
func initRootConfig() {
	cfg, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Config problems are surfaced but never fatal here; defaults keep
		// the CLI usable and the offending command can still fail later.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		cfg = config.DefaultConfig()
	}

	if !verbose {
		verbose = cfg.Verbose
	}
	resolvedConfig = cfg
}

// loadedConfig returns the configuration resolved during initialization,
// falling back to defaults when commands run outside cobra (tests).
func loadedConfig() *config.Config {
	if resolvedConfig != nil {
		return resolvedConfig
	}
	return config.DefaultConfig()
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssueCard prints a glamour remediation card for recognizable failure
// classes. Unknown errors get no card; fang already printed the message.
func renderIssueCard(err error) {
	id, ok := classifyIssue(err)
	if !ok {
		return
	}
	card := issue.Get(id)
	if card == nil {
		return
	}
	out, renderErr := card.Render("dark")
	if renderErr != nil {
		return
	}
	fmt.Fprint(os.Stderr, out)
}

// classifyIssue maps error classes to issue catalog entries.
func classifyIssue(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, toolrun.ErrToolNotFound):
		return issue.ToolNotFoundId, true
	case errors.Is(err, toolrun.ErrInputNotFound):
		return issue.ArchiveNotFoundId, true
	case errors.Is(err, server.ErrPortTracked):
		return issue.PortAlreadyTrackedId, true
	case errors.Is(err, server.ErrPortUnavailable):
		return issue.PortInUseId, true
	case errors.Is(err, server.ErrNotRunning):
		return issue.ServerNotRunningId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId, true
	default:
		return 0, false
	}
}

// GetVerbose returns the verbose flag value.
func GetVerbose() bool {
	return verbose
}
