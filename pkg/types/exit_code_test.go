// SPDX-License-Identifier: MPL-2.0

package types

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "zero is valid", value: 0, wantValid: true},
		{name: "one is valid", value: 1, wantValid: true},
		{name: "18 is valid", value: 18, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "256 is invalid", value: 256, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Fatalf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
			}
		})
	}
}

func TestExitCodeIsSuccess(t *testing.T) {
	t.Parallel()

	if !ExitCode(0).IsSuccess() {
		t.Error("ExitCode(0).IsSuccess() = false, want true")
	}
	if ExitCode(2).IsSuccess() {
		t.Error("ExitCode(2).IsSuccess() = true, want false")
	}
	if got := ExitCode(17).String(); got != "17" {
		t.Errorf("ExitCode(17).String() = %q, want %q", got, "17")
	}
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	if got := ExitCodeOf(nil); got != 0 {
		t.Errorf("ExitCodeOf(nil) = %d, want 0", got)
	}
	if got := ExitCodeOf(errors.New("boom")); got != 1 {
		t.Errorf("ExitCodeOf(plain error) = %d, want 1", got)
	}

	if runtime.GOOS == "windows" {
		return
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	err := exec.CommandContext(context.Background(), "sh", "-c", "exit 7").Run()
	if got := ExitCodeOf(err); got != 7 {
		t.Errorf("ExitCodeOf(exit 7) = %d, want 7", got)
	}
}
