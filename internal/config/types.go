// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// BackendGit drives the external git CLI.
	// Defined locally to avoid coupling config to internal/vcs.
	BackendGit VCSBackend = "git"
	// BackendGoGit uses the embedded go-git library.
	BackendGoGit VCSBackend = "go-git"

	// LogLevelDebug logs every external call.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs workflow steps.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidVCSBackend is returned when a VCSBackend value is not recognized.
	ErrInvalidVCSBackend = errors.New("invalid vcs backend")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// VCSBackend selects the version-control implementation.
	VCSBackend string

	// LogLevel is the minimum diagnostic level written to stderr.
	LogLevel string

	// InvalidVCSBackendError is returned when a VCSBackend value is not recognized.
	InvalidVCSBackendError struct {
		Value VCSBackend
	}

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RegistryFile is the registry path, relative to the project directory.
		RegistryFile string `json:"registry_file" mapstructure:"registry_file"`
		// ManifestFile is the manifest path, relative to the project directory.
		ManifestFile string `json:"manifest_file" mapstructure:"manifest_file"`
		// VCS configures working-copy checkout and queries.
		VCS VCSConfig `json:"vcs" mapstructure:"vcs"`
		// Build configures the build and run commands.
		Build BuildConfig `json:"build" mapstructure:"build"`
		// Scaffold configures `lktool new`.
		Scaffold ScaffoldConfig `json:"scaffold" mapstructure:"scaffold"`
		// UI configures output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// VCSConfig configures the version-control backend.
	VCSConfig struct {
		Backend   VCSBackend `json:"backend" mapstructure:"backend"`
		GitBinary string     `json:"git_binary" mapstructure:"git_binary"`
	}

	// BuildConfig configures the build tool invocation.
	BuildConfig struct {
		// Command is the shell line run by `lktool build`.
		Command string `json:"command" mapstructure:"command"`
		// RunCommand is the shell line run by `lktool run`.
		RunCommand string `json:"run_command" mapstructure:"run_command"`
		// WatchPatterns select the files that trigger `build --watch`.
		WatchPatterns []string `json:"watch_patterns" mapstructure:"watch_patterns"`
	}

	// ScaffoldConfig configures project creation.
	ScaffoldConfig struct {
		// TemplateDir replaces the built-in template when non-empty.
		TemplateDir string `json:"template_dir" mapstructure:"template_dir"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose  bool     `json:"verbose" mapstructure:"verbose"`
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		RegistryFile: "Repo.toml",
		ManifestFile: "Cargo.toml",
		VCS: VCSConfig{
			Backend:   BackendGit,
			GitBinary: "git",
		},
		Build: BuildConfig{
			Command:       "make",
			RunCommand:    "make run",
			WatchPatterns: []string{"src/**", "Cargo.toml"},
		},
		UI: UIConfig{
			LogLevel: LogLevelWarn,
		},
	}
}

// Validate returns an error if the VCSBackend is not recognized.
func (b VCSBackend) Validate() error {
	switch b {
	case BackendGit, BackendGoGit:
		return nil
	default:
		return &InvalidVCSBackendError{Value: b}
	}
}

// String returns the string representation of the VCSBackend.
func (b VCSBackend) String() string { return string(b) }

// Error implements the error interface.
func (e *InvalidVCSBackendError) Error() string {
	return fmt.Sprintf("invalid vcs backend %q (valid: %s, %s)", e.Value, BackendGit, BackendGoGit)
}

// Unwrap returns ErrInvalidVCSBackend for errors.Is() compatibility.
func (e *InvalidVCSBackendError) Unwrap() error { return ErrInvalidVCSBackend }

// Validate returns an error if the LogLevel is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// SlogLevel maps the level onto log/slog. Unknown values map to warn.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks the values the schema cannot, which matters for
// environment overrides that bypass the CUE file.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.RegistryFile) == "" {
		errs = append(errs, errors.New("registry_file must not be empty"))
	}
	if strings.TrimSpace(c.ManifestFile) == "" {
		errs = append(errs, errors.New("manifest_file must not be empty"))
	}
	if err := c.VCS.Backend.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
