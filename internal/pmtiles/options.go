// SPDX-License-Identifier: MPL-2.0

package pmtiles

import (
	"errors"
	"fmt"
	"strconv"
)

type (
	// ShowOptions selects what `show` prints about an archive.
	ShowOptions struct {
		// Archive is the path or bucket key of the archive.
		Archive string
		// Metadata prints the embedded JSON metadata instead of the
		// header summary.
		Metadata bool
		// HeaderJSON prints the parsed header as JSON.
		HeaderJSON bool
		// Bucket is an optional remote bucket URL; empty means a local
		// file.
		Bucket string
	}

	// TileOptions fetches a single tile from an archive.
	TileOptions struct {
		Archive string
		Z       int
		X       int
		Y       int
		// Bucket is an optional remote bucket URL.
		Bucket string
	}

	// ConvertOptions turns a foreign tileset into an archive.
	ConvertOptions struct {
		Input  string
		Output string
		// NoDeduplication skips the tile-content dedupe pass. Faster,
		// larger output.
		NoDeduplication bool
		// TmpDir overrides the scratch directory for conversion.
		TmpDir string
	}

	// ExtractOptions pulls a sub-pyramid out of an archive.
	ExtractOptions struct {
		Input  string
		Output string
		// Bbox is "min_lon,min_lat,max_lon,max_lat". Empty means no
		// bounding-box filter.
		Bbox string
		// Region is a path to a GeoJSON region mask. Mutually exclusive
		// with Bbox.
		Region  string
		MinZoom int
		// MaxZoom of -1 means "use the archive's maximum".
		MaxZoom int
		// DownloadThreads caps parallel fetches for remote sources.
		DownloadThreads int
		// Overfetch is the wasted-bytes ratio allowed when batching
		// ranged reads (e.g. 0.05).
		Overfetch float64
		// Bucket is an optional remote bucket URL for the input.
		Bucket string
		// DryRun prints the transfer plan without writing output.
		DryRun bool
	}

	// ClusterOptions re-clusters an archive for better locality.
	ClusterOptions struct {
		Archive         string
		NoDeduplication bool
	}

	// EditOptions replaces an archive's header or metadata in place.
	// At least one of HeaderJSON and MetadataFile must be set.
	EditOptions struct {
		Archive string
		// HeaderJSON is a path to a JSON file with header fields.
		HeaderJSON string
		// MetadataFile is a path to the replacement metadata document:
		// JSON as the tool expects, or TOML which the binding converts.
		MetadataFile string
	}

	// VerifyOptions checks archive integrity.
	VerifyOptions struct {
		Archive string
	}

	// UploadOptions copies an archive into a remote bucket. Credentials
	// flow through ambient environment variables; the binding never reads
	// them.
	UploadOptions struct {
		Input  string
		Key    string
		Bucket string
		// MaxConcurrency caps parallel part uploads.
		MaxConcurrency int
	}

	// ServeOptions configures the tool's own HTTP server, spawned as a
	// managed background process.
	ServeOptions struct {
		// Path is the directory or bucket to serve archives from.
		Path string
		Port int
		// Cors is the allowed-origin value passed to the tool.
		Cors string
		// CacheSize is the tool's in-memory header cache, in megabytes.
		CacheSize int
		// PublicURL is the advertised base URL for TileJSON output.
		PublicURL string
	}
)

// validate checks ShowOptions before any spawn.
func (o *ShowOptions) validate() error {
	if o.Archive == "" {
		return errors.New("show: archive is required")
	}
	return nil
}

// args renders the `show` argument list.
func (o *ShowOptions) args() []string {
	args := []string{"show", o.Archive}
	if o.Metadata {
		args = append(args, "--metadata")
	}
	if o.HeaderJSON {
		args = append(args, "--header-json")
	}
	if o.Bucket != "" {
		args = append(args, "--bucket="+o.Bucket)
	}
	return args
}

// validate checks TileOptions before any spawn.
func (o *TileOptions) validate() error {
	if o.Archive == "" {
		return errors.New("tile: archive is required")
	}
	if o.Z < 0 || o.X < 0 || o.Y < 0 {
		return fmt.Errorf("tile: coordinates %d/%d/%d out of range", o.Z, o.X, o.Y)
	}
	max := 1 << o.Z
	if o.X >= max || o.Y >= max {
		return fmt.Errorf("tile: %d/%d/%d exceeds zoom %d bounds", o.Z, o.X, o.Y, o.Z)
	}
	return nil
}

// args renders the `tile` argument list.
func (o *TileOptions) args() []string {
	args := []string{"tile", o.Archive, strconv.Itoa(o.Z), strconv.Itoa(o.X), strconv.Itoa(o.Y)}
	if o.Bucket != "" {
		args = append(args, "--bucket="+o.Bucket)
	}
	return args
}

// validate checks ConvertOptions before any spawn.
func (o *ConvertOptions) validate() error {
	if o.Input == "" || o.Output == "" {
		return errors.New("convert: input and output are required")
	}
	return nil
}

// args renders the `convert` argument list.
func (o *ConvertOptions) args() []string {
	args := []string{"convert", o.Input, o.Output}
	if o.NoDeduplication {
		args = append(args, "--no-deduplication")
	}
	if o.TmpDir != "" {
		args = append(args, "--tmpdir="+o.TmpDir)
	}
	return args
}

// validate checks ExtractOptions before any spawn.
func (o *ExtractOptions) validate() error {
	if o.Input == "" || o.Output == "" {
		return errors.New("extract: input and output are required")
	}
	if o.Bbox != "" && o.Region != "" {
		return errors.New("extract: bbox and region are mutually exclusive")
	}
	if o.MaxZoom >= 0 && o.MinZoom > o.MaxZoom {
		return fmt.Errorf("extract: minzoom %d exceeds maxzoom %d", o.MinZoom, o.MaxZoom)
	}
	return nil
}

// args renders the `extract` argument list.
func (o *ExtractOptions) args() []string {
	args := []string{"extract", o.Input, o.Output}
	if o.Bbox != "" {
		args = append(args, "--bbox="+o.Bbox)
	}
	if o.Region != "" {
		args = append(args, "--region="+o.Region)
	}
	if o.MinZoom > 0 {
		args = append(args, "--minzoom="+strconv.Itoa(o.MinZoom))
	}
	if o.MaxZoom >= 0 {
		args = append(args, "--maxzoom="+strconv.Itoa(o.MaxZoom))
	}
	if o.DownloadThreads > 0 {
		args = append(args, "--download-threads="+strconv.Itoa(o.DownloadThreads))
	}
	if o.Overfetch > 0 {
		args = append(args, fmt.Sprintf("--overfetch=%g", o.Overfetch))
	}
	if o.Bucket != "" {
		args = append(args, "--bucket="+o.Bucket)
	}
	if o.DryRun {
		args = append(args, "--dry-run")
	}
	return args
}

// validate checks ClusterOptions before any spawn.
func (o *ClusterOptions) validate() error {
	if o.Archive == "" {
		return errors.New("cluster: archive is required")
	}
	return nil
}

// args renders the `cluster` argument list.
func (o *ClusterOptions) args() []string {
	args := []string{"cluster", o.Archive}
	if o.NoDeduplication {
		args = append(args, "--no-deduplication")
	}
	return args
}

// validate checks EditOptions before any spawn.
func (o *EditOptions) validate() error {
	if o.Archive == "" {
		return errors.New("edit: archive is required")
	}
	if o.HeaderJSON == "" && o.MetadataFile == "" {
		return errors.New("edit: nothing to edit; provide a header or metadata document")
	}
	return nil
}

// args renders the `edit` argument list. metadataPath is the resolved JSON
// metadata document (post TOML conversion), empty when unused.
func (o *EditOptions) args(metadataPath string) []string {
	args := []string{"edit", o.Archive}
	if o.HeaderJSON != "" {
		args = append(args, "--header-json="+o.HeaderJSON)
	}
	if metadataPath != "" {
		args = append(args, "--metadata="+metadataPath)
	}
	return args
}

// validate checks UploadOptions before any spawn.
func (o *UploadOptions) validate() error {
	if o.Input == "" {
		return errors.New("upload: input is required")
	}
	if o.Key == "" {
		return errors.New("upload: destination key is required")
	}
	if o.Bucket == "" {
		return errors.New("upload: bucket URL is required")
	}
	return nil
}

// args renders the `upload` argument list.
func (o *UploadOptions) args() []string {
	args := []string{"upload", o.Input, o.Key, "--bucket=" + o.Bucket}
	if o.MaxConcurrency > 0 {
		args = append(args, "--max-concurrency="+strconv.Itoa(o.MaxConcurrency))
	}
	return args
}

// validate checks ServeOptions before any spawn.
func (o *ServeOptions) validate() error {
	if o.Path == "" {
		return errors.New("serve: path is required")
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("serve: port %d out of range", o.Port)
	}
	return nil
}

// Args renders the `serve` argument list. Exported because the server
// manager needs it to build the spawned process command line.
func (o *ServeOptions) Args() []string {
	args := []string{"serve", o.Path, "--port=" + strconv.Itoa(o.Port)}
	if o.Cors != "" {
		args = append(args, "--cors="+o.Cors)
	}
	if o.CacheSize > 0 {
		args = append(args, "--cache-size="+strconv.Itoa(o.CacheSize))
	}
	if o.PublicURL != "" {
		args = append(args, "--public-url="+o.PublicURL)
	}
	return args
}
