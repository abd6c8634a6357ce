// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the path involved and
// remediation hints. The issue catalog holds Markdown guidance for the fatal
// conditions of a sync run, rendered with glamour.
package issue
