// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for tilebridge.
//
// The command hierarchy covers serving tile archives locally (serve, status),
// generating archives from feature data (generate), operating on archives
// through the external archive tool (archive show/tile/convert/extract/
// cluster/edit/verify/upload), and configuration management (config).
// Handlers stay thin: business logic lives behind the App service interfaces.
package cmd
