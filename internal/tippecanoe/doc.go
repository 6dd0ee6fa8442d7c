// SPDX-License-Identifier: MPL-2.0

// Package tippecanoe is a thin binding over the external tile-generation
// executable. Options render into a flag list, the tool runs through
// toolrun.Runner, and the output archive's existence is verified after a
// zero exit. The binding never inspects feature data or tiles itself.
package tippecanoe
