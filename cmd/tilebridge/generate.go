// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tilebridge/internal/tippecanoe"
	"tilebridge/internal/watch"

	"github.com/spf13/cobra"
)

var (
	generateOutput       string
	generateLayer        string
	generateMinZoom      int
	generateMaxZoom      int
	generateGuessMaxZoom bool
	generateDropDensest  bool
	generateReadParallel bool
	generateForce        bool
	generateWatch        bool

	generateCmd = &cobra.Command{
		Use:   "generate -o <archive> <features...> [-- <raw tool flags>]",
		Short: "Generate a tile archive from feature data",
		Long: `Generate a tile archive from GeoJSON feature data using the external
tile-generation tool.

Flags after a bare -- are passed to the tool untouched, for the long tail
of options this command does not model.

With --watch the command keeps running: changes to the input files (or any
feature file under the current directory) re-run generation after a quiet
period, so a browser pointed at 'tilebridge serve' picks up fresh tiles on
reload.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output archive path (required)")
	generateCmd.Flags().StringVarP(&generateLayer, "layer", "l", "", "output layer name (default from config)")
	generateCmd.Flags().IntVarP(&generateMinZoom, "minzoom", "Z", 0, "minimum zoom level")
	generateCmd.Flags().IntVarP(&generateMaxZoom, "maxzoom", "z", 0, "maximum zoom level")
	generateCmd.Flags().BoolVar(&generateGuessMaxZoom, "guess-maxzoom", false, "let the tool pick a max zoom from feature density")
	generateCmd.Flags().BoolVar(&generateDropDensest, "drop-densest", false, "thin the densest tiles instead of failing on oversized ones")
	generateCmd.Flags().BoolVar(&generateReadParallel, "read-parallel", false, "read line-delimited input in parallel")
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "overwrite an existing output archive")
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "re-run generation when input files change")

	if err := generateCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app := getApp()
	cfg := getConfig()

	inputs := args
	var extra []string
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		inputs = args[:at]
		extra = args[at:]
	}
	if len(inputs) == 0 {
		return fmt.Errorf("generate: at least one input feature file is required")
	}

	layer := generateLayer
	if layer == "" {
		layer = cfg.Generate.Layer
	}

	opts := tippecanoe.Options{
		Inputs:              inputs,
		Output:              generateOutput,
		Layer:               layer,
		MinZoom:             generateMinZoom,
		MaxZoom:             generateMaxZoom,
		GuessMaxZoom:        generateGuessMaxZoom,
		DropDensestAsNeeded: generateDropDensest,
		ReadParallel:        generateReadParallel,
		Force:               generateForce,
		ExtraArgs:           extra,
	}

	if !generateWatch {
		if err := app.Generator.Generate(cmd.Context(), opts); err != nil {
			return wrapToolExit(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote ")+generateOutput)
		return nil
	}

	return watchAndGenerate(cmd, opts)
}

// watchAndGenerate runs one generation, then re-runs on input changes until
// interrupted. Regenerations force-overwrite the archive the first run wrote.
func watchAndGenerate(cmd *cobra.Command, opts tippecanoe.Options) error {
	app := getApp()
	cfg := getConfig()

	if err := app.Generator.Generate(cmd.Context(), opts); err != nil {
		return wrapToolExit(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote ")+opts.Output)

	rerunOpts := opts
	rerunOpts.Force = true

	// The generated archive is excluded so a finished run never re-triggers
	// itself.
	w, err := watch.New(watch.Config{
		Debounce: cfg.Generate.WatchDebounce.Value(0),
		Ignore:   []string{filepath.ToSlash(filepath.Clean(opts.Output))},
		Logger:   app.Logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), VerboseStyle.Render(fmt.Sprintf("Changed: %v", changed)))
			if genErr := app.Generator.Generate(ctx, rerunOpts); genErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Regeneration failed: ")+formatErrorForDisplay(genErr, verbose))
				return genErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Rewrote ")+opts.Output)
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("Watching for changes. Press Ctrl+C to stop."))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
