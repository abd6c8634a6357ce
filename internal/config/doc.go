// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/sync-packages/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/sync-packages/config.cue on macOS,
// %APPDATA%\sync-packages\config.cue on Windows), falling back to ./config.cue. A config file
// is never required: the defaults reproduce the built-in source path, destination catalog
// and build pipeline. SYNC_PACKAGES_* environment variables override file values.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before being merged
// into Viper.
package config
