// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"tilebridge/internal/pmtiles"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Operate on tile archives with the external archive tool",
	Long: `Operate on tile archives through the external archive tool.

Every subcommand is a thin typed wrapper: options are validated locally,
rendered into the tool's argument list, and the tool's output is passed
through. Remote archives are addressed with --bucket; cloud credentials
flow through the inherited environment untouched.`,
}

var (
	showMetadata   bool
	showHeaderJSON bool
	showBucket     string

	archiveShowCmd = &cobra.Command{
		Use:   "show <archive>",
		Short: "Print an archive's header or metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := getApp().Archive.Show(cmd.Context(), pmtiles.ShowOptions{
				Archive:    args[0],
				Metadata:   showMetadata,
				HeaderJSON: showHeaderJSON,
				Bucket:     showBucket,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Raw)
			return nil
		},
	}
)

var (
	tileOutput string
	tileBucket string

	archiveTileCmd = &cobra.Command{
		Use:   "tile <archive> <z> <x> <y>",
		Short: "Fetch a single tile from an archive",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, x, y, err := parseTileCoords(args[1], args[2], args[3])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tileOutput != "" {
				f, createErr := os.Create(tileOutput)
				if createErr != nil {
					return fmt.Errorf("tile: %w", createErr)
				}
				defer f.Close() //nolint:errcheck // write errors surface via Tile
				out = f
			}

			return wrapToolExit(getApp().Archive.Tile(cmd.Context(), pmtiles.TileOptions{
				Archive: args[0],
				Z:       z,
				X:       x,
				Y:       y,
				Bucket:  tileBucket,
			}, out))
		},
	}
)

var (
	convertNoDedupe bool
	convertTmpDir   string

	archiveConvertCmd = &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a foreign tileset into an archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := getApp().Archive.Convert(cmd.Context(), pmtiles.ConvertOptions{
				Input:           args[0],
				Output:          args[1],
				NoDeduplication: convertNoDedupe,
				TmpDir:          convertTmpDir,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote ")+args[1])
			return nil
		},
	}
)

var (
	extractBbox      string
	extractRegion    string
	extractMinZoom   int
	extractMaxZoom   int
	extractThreads   int
	extractOverfetch float64
	extractBucket    string
	extractDryRun    bool

	archiveExtractCmd = &cobra.Command{
		Use:   "extract <input> <output>",
		Short: "Pull a sub-pyramid out of an archive",
		Long: `Pull a sub-pyramid out of an archive, bounded by a bbox or a GeoJSON
region mask and optional zoom limits. The input may be remote (--bucket);
only the needed byte ranges are fetched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := getApp().Archive.Extract(cmd.Context(), pmtiles.ExtractOptions{
				Input:           args[0],
				Output:          args[1],
				Bbox:            extractBbox,
				Region:          extractRegion,
				MinZoom:         extractMinZoom,
				MaxZoom:         extractMaxZoom,
				DownloadThreads: extractThreads,
				Overfetch:       extractOverfetch,
				Bucket:          extractBucket,
				DryRun:          extractDryRun,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
)

var (
	clusterNoDedupe bool

	archiveClusterCmd = &cobra.Command{
		Use:   "cluster <archive>",
		Short: "Re-cluster an archive for better read locality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := getApp().Archive.Cluster(cmd.Context(), pmtiles.ClusterOptions{
				Archive:         args[0],
				NoDeduplication: clusterNoDedupe,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Clustered ")+args[0])
			return nil
		},
	}
)

var (
	editHeaderJSON string
	editMetadata   string

	archiveEditCmd = &cobra.Command{
		Use:   "edit <archive>",
		Short: "Replace an archive's header or metadata in place",
		Long: `Replace an archive's header or metadata in place.

--metadata accepts the JSON document the tool expects, or a TOML file
which is converted to JSON before the tool runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := getApp().Archive.Edit(cmd.Context(), pmtiles.EditOptions{
				Archive:      args[0],
				HeaderJSON:   editHeaderJSON,
				MetadataFile: editMetadata,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Updated ")+args[0])
			return nil
		},
	}
)

var archiveVerifyCmd = &cobra.Command{
	Use:   "verify <archive>",
	Short: "Check an archive's integrity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := getApp().Archive.Verify(cmd.Context(), pmtiles.VerifyOptions{
			Archive: args[0],
		})
		if err != nil {
			return wrapToolExit(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("OK ")+args[0])
		return nil
	},
}

var (
	uploadBucket      string
	uploadConcurrency int

	archiveUploadCmd = &cobra.Command{
		Use:   "upload <archive> <key>",
		Short: "Upload an archive to a remote bucket",
		Long: `Upload an archive to a remote bucket under the given key.

Credentials come from the ambient environment (AWS_*, GOOGLE_*, AZURE_*
variables), which is inherited by the tool untouched. tilebridge never
reads or stores them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := getApp().Archive.Upload(cmd.Context(), pmtiles.UploadOptions{
				Input:          args[0],
				Key:            args[1],
				Bucket:         uploadBucket,
				MaxConcurrency: uploadConcurrency,
			})
			if err != nil {
				return wrapToolExit(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Uploaded ")+args[0]+SuccessStyle.Render(" as ")+args[1])
			return nil
		},
	}
)

func init() {
	archiveShowCmd.Flags().BoolVar(&showMetadata, "metadata", false, "print the embedded JSON metadata")
	archiveShowCmd.Flags().BoolVar(&showHeaderJSON, "header-json", false, "print the parsed header as JSON")
	archiveShowCmd.Flags().StringVar(&showBucket, "bucket", "", "remote bucket URL for the archive")

	archiveTileCmd.Flags().StringVarP(&tileOutput, "output", "o", "", "write the tile to a file instead of stdout")
	archiveTileCmd.Flags().StringVar(&tileBucket, "bucket", "", "remote bucket URL for the archive")

	archiveConvertCmd.Flags().BoolVar(&convertNoDedupe, "no-deduplication", false, "skip the tile-content dedupe pass")
	archiveConvertCmd.Flags().StringVar(&convertTmpDir, "tmpdir", "", "scratch directory for conversion")

	archiveExtractCmd.Flags().StringVar(&extractBbox, "bbox", "", "bounding box: min_lon,min_lat,max_lon,max_lat")
	archiveExtractCmd.Flags().StringVar(&extractRegion, "region", "", "GeoJSON region mask file")
	archiveExtractCmd.Flags().IntVar(&extractMinZoom, "minzoom", 0, "minimum zoom to extract")
	archiveExtractCmd.Flags().IntVar(&extractMaxZoom, "maxzoom", -1, "maximum zoom to extract (-1 means the archive's maximum)")
	archiveExtractCmd.Flags().IntVar(&extractThreads, "download-threads", 0, "parallel fetches for remote sources")
	archiveExtractCmd.Flags().Float64Var(&extractOverfetch, "overfetch", 0, "allowed wasted-bytes ratio when batching ranged reads")
	archiveExtractCmd.Flags().StringVar(&extractBucket, "bucket", "", "remote bucket URL for the input")
	archiveExtractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "print the transfer plan without writing output")

	archiveClusterCmd.Flags().BoolVar(&clusterNoDedupe, "no-deduplication", false, "skip the tile-content dedupe pass")

	archiveEditCmd.Flags().StringVar(&editHeaderJSON, "header-json", "", "JSON file with replacement header fields")
	archiveEditCmd.Flags().StringVar(&editMetadata, "metadata", "", "replacement metadata document (JSON or TOML)")

	archiveUploadCmd.Flags().StringVar(&uploadBucket, "bucket", "", "destination bucket URL")
	archiveUploadCmd.Flags().IntVar(&uploadConcurrency, "max-concurrency", 0, "parallel part uploads")

	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveTileCmd)
	archiveCmd.AddCommand(archiveConvertCmd)
	archiveCmd.AddCommand(archiveExtractCmd)
	archiveCmd.AddCommand(archiveClusterCmd)
	archiveCmd.AddCommand(archiveEditCmd)
	archiveCmd.AddCommand(archiveVerifyCmd)
	archiveCmd.AddCommand(archiveUploadCmd)
}

// parseTileCoords parses z/x/y arguments, rejecting coordinates outside the
// zoom level's grid.
func parseTileCoords(zs, xs, ys string) (z, x, y int, err error) {
	z, err = strconv.Atoi(zs)
	if err != nil || z < 0 || z > 30 {
		return 0, 0, 0, fmt.Errorf("tile: invalid zoom %q", zs)
	}
	x, err = strconv.Atoi(xs)
	if err != nil || x < 0 || x >= 1<<z {
		return 0, 0, 0, fmt.Errorf("tile: invalid x %q for zoom %d", xs, z)
	}
	y, err = strconv.Atoi(ys)
	if err != nil || y < 0 || y >= 1<<z {
		return 0, 0, 0, fmt.Errorf("tile: invalid y %q for zoom %d", ys, z)
	}
	return z, x, y, nil
}
