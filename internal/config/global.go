// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride lets tests pin the config directory, since
// os.UserHomeDir() ignores HOME on some platforms.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
