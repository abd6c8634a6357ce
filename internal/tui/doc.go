// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive prompts of a sync run, built on
// charmbracelet/huh: the destination multi-select and the confirmation asked
// after a failed build. Static implementations answer from flags when no
// prompt should be shown.
package tui
