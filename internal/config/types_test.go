// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestVCSBackend_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   VCSBackend
		wantErr bool
	}{
		{BackendGit, false},
		{BackendGoGit, false},
		{"", true},
		{"svn", true},
	}
	for _, tt := range tests {
		err := tt.value.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("VCSBackend(%q).Validate() error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidVCSBackend) {
			t.Errorf("error should wrap ErrInvalidVCSBackend, got %v", err)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   LogLevel
		want    slog.Level
		wantErr bool
	}{
		{LogLevelDebug, slog.LevelDebug, false},
		{LogLevelInfo, slog.LevelInfo, false},
		{LogLevelWarn, slog.LevelWarn, false},
		{LogLevelError, slog.LevelError, false},
		{"trace", slog.LevelWarn, true},
	}
	for _, tt := range tests {
		if got := tt.value.SlogLevel(); got != tt.want {
			t.Errorf("LogLevel(%q).SlogLevel() = %v, want %v", tt.value, got, tt.want)
		}
		err := tt.value.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("LogLevel(%q).Validate() error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidLogLevel) {
			t.Errorf("error should wrap ErrInvalidLogLevel, got %v", err)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	cfg := DefaultConfig()
	cfg.RegistryFile = " "
	cfg.VCS.Backend = "cvs"
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
	var ice *InvalidConfigError
	if !errors.As(err, &ice) || len(ice.FieldErrors) != 2 {
		t.Fatalf("want 2 field errors, got %v", err)
	}
}
