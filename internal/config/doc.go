// SPDX-License-Identifier: MPL-2.0

// Package config loads lktool settings using Viper with CUE as the file format.
//
// The file is looked up at the path given with --config, then at
// config.cue in the platform config directory ($XDG_CONFIG_HOME/lktool on
// Linux, ~/Library/Application Support/lktool on macOS, %APPDATA%\lktool on
// Windows), then at lktool.cue in the working directory. Files are validated
// against the embedded config_schema.cue before they are merged over the
// defaults. LKTOOL_* environment variables override file values.
package config
