// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"sync"

	"tilebridge/internal/config"
	"tilebridge/internal/pmtiles"
	"tilebridge/internal/server"
	"tilebridge/internal/tippecanoe"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate work through its service interfaces.
	App struct {
		Config    ConfigProvider
		Archive   ArchiveService
		Generator GeneratorService
		Servers   *server.Manager
		Logger    *log.Logger

		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests can
	// supply fakes to isolate specific command behavior.
	Dependencies struct {
		Config    ConfigProvider
		Archive   ArchiveService
		Generator GeneratorService
		Servers   *server.Manager
		Logger    *log.Logger
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ArchiveService exposes the archive tool's operations to command
	// handlers. The production implementation is the pmtiles client; tests
	// substitute fakes so handlers are exercised without the external tool.
	ArchiveService interface {
		Show(ctx context.Context, opts pmtiles.ShowOptions) (*pmtiles.ShowResult, error)
		Tile(ctx context.Context, opts pmtiles.TileOptions, w io.Writer) error
		Convert(ctx context.Context, opts pmtiles.ConvertOptions) error
		Extract(ctx context.Context, opts pmtiles.ExtractOptions) (string, error)
		Cluster(ctx context.Context, opts pmtiles.ClusterOptions) error
		Edit(ctx context.Context, opts pmtiles.EditOptions) error
		Verify(ctx context.Context, opts pmtiles.VerifyOptions) (string, error)
		Upload(ctx context.Context, opts pmtiles.UploadOptions) error
		ServeCommand(opts pmtiles.ServeOptions) (string, []string, error)
	}

	// GeneratorService runs the tile-generation tool.
	GeneratorService interface {
		Generate(ctx context.Context, opts tippecanoe.Options) error
	}
)

// NewApp creates an App with defaults for omitted dependencies. The loaded
// configuration supplies tool binary paths, so cfg must be resolved before
// the production services are built.
func NewApp(cfg *config.Config, deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		level := log.WarnLevel
		if cfg.Verbose {
			level = log.DebugLevel
		}
		deps.Logger = log.NewWithOptions(deps.Stderr, log.Options{
			Prefix: "tilebridge",
			Level:  level,
		})
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Archive == nil {
		deps.Archive = pmtiles.NewClient(string(cfg.Tools.Pmtiles), deps.Logger)
	}
	if deps.Generator == nil {
		deps.Generator = tippecanoe.New(string(cfg.Tools.Tippecanoe), deps.Logger)
	}
	if deps.Servers == nil {
		deps.Servers = server.NewManager(server.NewRegistry(), deps.Logger)
	}

	return &App{
		Config:    deps.Config,
		Archive:   deps.Archive,
		Generator: deps.Generator,
		Servers:   deps.Servers,
		Logger:    deps.Logger,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

var (
	appOnce     sync.Once
	appInstance *App
	appConfig   *config.Config
)

// getApp lazily builds the shared production App after configuration has
// been resolved by initRootConfig. Command handlers call this from RunE.
func getApp() *App {
	appOnce.Do(func() {
		cfg := loadedConfig()
		appInstance = NewApp(cfg, Dependencies{})
		appConfig = cfg
	})
	return appInstance
}

// getConfig returns the configuration the shared App was built with.
func getConfig() *config.Config {
	getApp()
	return appConfig
}
