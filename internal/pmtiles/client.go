// SPDX-License-Identifier: MPL-2.0

package pmtiles

import (
	"context"
	"errors"
	"io"

	"tilebridge/internal/toolrun"

	"github.com/charmbracelet/log"
)

// DefaultBinary is the archive CLI binary name resolved on PATH when no
// explicit path is configured.
const DefaultBinary = "pmtiles"

type (
	// Client invokes the archive CLI. It is stateless beyond the runner;
	// methods are safe for concurrent use.
	Client struct {
		runner *toolrun.Runner
	}

	// ShowResult carries a `show` invocation's output. Document is the
	// decoded JSON when the subcommand emitted JSON, nil otherwise.
	ShowResult struct {
		Raw      string
		Document map[string]any
	}
)

// NewClient creates a binding for the given archive CLI binary name or path.
func NewClient(binary string, logger *log.Logger) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{runner: toolrun.New(binary, logger)}
}

// Binary returns the configured binary name or path.
func (c *Client) Binary() string { return c.runner.Binary() }

// Resolve verifies the binary exists without invoking it.
func (c *Client) Resolve() (string, error) { return c.runner.Resolve() }

// localInputs returns the archive path as a fail-fast input when the
// operation targets a local file rather than a remote bucket.
func localInputs(bucket string, paths ...string) []string {
	if bucket != "" {
		return nil
	}
	return paths
}

// Show prints an archive's header summary, header JSON, or metadata.
func (c *Client) Show(ctx context.Context, opts ShowOptions) (*ShowResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	result, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: localInputs(opts.Bucket, opts.Archive),
	})
	if err != nil {
		return nil, err
	}

	out := &ShowResult{Raw: result.Stdout}
	if _, err := toolrun.DecodeJSON(result, &out.Document); err != nil {
		return nil, err
	}
	return out, nil
}

// Tile fetches one tile and streams its bytes to w.
func (c *Client) Tile(ctx context.Context, opts TileOptions, w io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: localInputs(opts.Bucket, opts.Archive),
		Stdout: w,
	})
	return err
}

// Convert builds an archive from a foreign tileset.
func (c *Client) Convert(ctx context.Context, opts ConvertOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: []string{opts.Input},
	})
	return err
}

// Extract pulls a sub-pyramid out of an archive and returns the tool's
// transfer summary.
func (c *Client) Extract(ctx context.Context, opts ExtractOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	inputs := localInputs(opts.Bucket, opts.Input)
	if opts.Region != "" {
		inputs = append(inputs, opts.Region)
	}

	result, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: inputs,
	})
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// Cluster re-clusters an archive in place for better read locality.
func (c *Client) Cluster(ctx context.Context, opts ClusterOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: []string{opts.Archive},
	})
	return err
}

// Edit replaces an archive's header or metadata in place. A TOML metadata
// document is converted to the JSON the tool expects before the spawn.
func (c *Client) Edit(ctx context.Context, opts EditOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	inputs := []string{opts.Archive}
	if opts.HeaderJSON != "" {
		inputs = append(inputs, opts.HeaderJSON)
	}

	metadataPath := ""
	if opts.MetadataFile != "" {
		resolved, cleanup, err := resolveMetadataDocument(opts.MetadataFile)
		if err != nil {
			return err
		}
		defer cleanup()
		metadataPath = resolved
		inputs = append(inputs, opts.MetadataFile)
	}

	_, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(metadataPath),
		Inputs: inputs,
	})
	return err
}

// Verify checks archive integrity and returns the tool's report.
func (c *Client) Verify(ctx context.Context, opts VerifyOptions) (string, error) {
	if opts.Archive == "" {
		return "", errors.New("verify: archive is required")
	}

	result, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   []string{"verify", opts.Archive},
		Inputs: []string{opts.Archive},
	})
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// Upload copies an archive into a remote bucket. Cloud credentials reach
// the tool through the inherited environment.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	_, err := c.runner.Run(ctx, toolrun.Invocation{
		Args:   opts.args(),
		Inputs: []string{opts.Input},
	})
	return err
}

// ServeCommand validates serve options and returns the binary plus argument
// list for the server manager to spawn as a tracked background process.
func (c *Client) ServeCommand(opts ServeOptions) (string, []string, error) {
	if err := opts.validate(); err != nil {
		return "", nil, err
	}
	return c.runner.Binary(), opts.Args(), nil
}
