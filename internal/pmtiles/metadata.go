// SPDX-License-Identifier: MPL-2.0

package pmtiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// resolveMetadataDocument prepares a metadata file for the archive tool,
// which only accepts JSON. TOML documents are converted into a temporary
// JSON file; JSON documents pass through untouched. The returned cleanup
// removes any temporary file and is safe to call either way.
func resolveMetadataDocument(path string) (string, func(), error) {
	noop := func() {}

	if strings.ToLower(filepath.Ext(path)) != ".toml" {
		return path, noop, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", noop, fmt.Errorf("failed to read metadata document: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", noop, fmt.Errorf("invalid TOML metadata in %s: %w", path, err)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", noop, fmt.Errorf("failed to encode metadata as JSON: %w", err)
	}

	tmp, err := os.CreateTemp("", "tilebridge-metadata-*.json")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create metadata scratch file: %w", err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", noop, fmt.Errorf("failed to write metadata scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", noop, fmt.Errorf("failed to close metadata scratch file: %w", err)
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}
