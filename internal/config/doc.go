// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/tilebridge/config.cue (or XDG equivalent on
// Linux, ~/Library/Application Support/tilebridge/config.cue on macOS,
// %APPDATA%\tilebridge\config.cue on Windows), falling back to a config.cue in the
// current directory. The package covers external tool paths, serving defaults (port,
// host, CORS origins, shutdown timeout), and tile-generation defaults.
//
// Files are validated against a CUE schema (config_schema.cue) before use, so type
// mismatches surface as clear errors with the offending field's path.
package config
