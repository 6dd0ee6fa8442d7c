// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It defines error types that carry remediation steps alongside a catalog of
// Markdown-formatted guidance for recurring failure modes (missing external
// tools, occupied ports, unreadable archives), rendered in the terminal via
// glamour.
package issue
