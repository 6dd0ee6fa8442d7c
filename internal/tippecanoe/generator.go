// SPDX-License-Identifier: MPL-2.0

package tippecanoe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"tilebridge/internal/toolrun"

	"github.com/charmbracelet/log"
)

// DefaultBinary is the tile-generation binary name resolved on PATH when no
// explicit path is configured.
const DefaultBinary = "tippecanoe"

type (
	// Options configures one tile-generation run.
	Options struct {
		// Inputs are the source feature files (GeoJSON or
		// line-delimited GeoJSON). At least one is required.
		Inputs []string
		// Output is the archive file to produce.
		Output string
		// Layer names the single output layer. Empty lets the tool
		// derive layer names from the input file names.
		Layer string
		// MinZoom and MaxZoom bound the generated pyramid. A MaxZoom
		// of 0 with GuessMaxZoom unset keeps the tool default.
		MinZoom int
		MaxZoom int
		// GuessMaxZoom lets the tool pick a max zoom from feature
		// density (-zg).
		GuessMaxZoom bool
		// DropDensestAsNeeded thins the densest tiles instead of
		// failing when a tile exceeds the size limit.
		DropDensestAsNeeded bool
		// ReadParallel splits line-delimited input across CPUs.
		ReadParallel bool
		// Force overwrites an existing output archive.
		Force bool
		// ExtraArgs passes raw flags through untouched, for the long
		// tail of tool options the binding does not model.
		ExtraArgs []string
	}

	// Generator invokes the tile-generation executable.
	Generator struct {
		runner *toolrun.Runner
	}
)

// validate checks Options before any spawn.
func (o *Options) validate() error {
	if len(o.Inputs) == 0 {
		return errors.New("generate: at least one input feature file is required")
	}
	if o.Output == "" {
		return errors.New("generate: output archive path is required")
	}
	if !o.GuessMaxZoom && o.MaxZoom > 0 && o.MinZoom > o.MaxZoom {
		return fmt.Errorf("generate: minzoom %d exceeds maxzoom %d", o.MinZoom, o.MaxZoom)
	}
	return nil
}

// args renders the tool's flag list.
func (o *Options) args() []string {
	args := []string{"-o", o.Output}
	if o.Layer != "" {
		args = append(args, "-l", o.Layer)
	}
	if o.GuessMaxZoom {
		args = append(args, "-zg")
	} else if o.MaxZoom > 0 {
		args = append(args, "-z", strconv.Itoa(o.MaxZoom))
	}
	if o.MinZoom > 0 {
		args = append(args, "-Z", strconv.Itoa(o.MinZoom))
	}
	if o.DropDensestAsNeeded {
		args = append(args, "--drop-densest-as-needed")
	}
	if o.ReadParallel {
		args = append(args, "--read-parallel")
	}
	if o.Force {
		args = append(args, "--force")
	}
	args = append(args, o.ExtraArgs...)
	args = append(args, o.Inputs...)
	return args
}

// New creates a Generator for the given binary name or path.
func New(binary string, logger *log.Logger) *Generator {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Generator{runner: toolrun.New(binary, logger)}
}

// Binary returns the configured binary name or path.
func (g *Generator) Binary() string { return g.runner.Binary() }

// Resolve verifies the binary exists without invoking it.
func (g *Generator) Resolve() (string, error) { return g.runner.Resolve() }

// Generate runs the tool and confirms the output archive exists afterward.
// Input files are stat-checked before the spawn; a missing output after a
// zero exit is reported as an error rather than silent success.
func (g *Generator) Generate(ctx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	_, err := g.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: opts.Inputs,
	})
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(opts.Output); statErr != nil {
		return fmt.Errorf("tile generation reported success but %s was not produced: %w", opts.Output, statErr)
	}
	return nil
}
