// SPDX-License-Identifier: MPL-2.0

package override

import (
	"errors"
	"fmt"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

var (
	// ErrWorkingCopyDirty is returned by Put when the container has local
	// modifications.
	ErrWorkingCopyDirty = errors.New("working copy dirty")
	// ErrUnpushedChanges is returned by Put when the container has commits
	// that are not on its upstream.
	ErrUnpushedChanges = errors.New("unpushed changes")
	// ErrInconsistentOverrideState is returned when the manifest and the disk
	// disagree about a binding.
	ErrInconsistentOverrideState = errors.New("inconsistent override state")
)

type (
	// WorkingCopyDirtyError carries the status output of the dirty container.
	WorkingCopyDirtyError struct {
		Container types.FilesystemPath
		Status    string
	}

	// UnpushedChangesError carries the diff summary of the unpushed commits.
	UnpushedChangesError struct {
		Container types.FilesystemPath
		DiffStat  string
	}

	// InconsistentStateError describes how the manifest and the container
	// diverged. Err is set when the divergence was caused by a failed step.
	InconsistentStateError struct {
		Location  registry.SourceLocation
		Container types.FilesystemPath
		Reason    string
		Err       error
	}
)

// Error implements the error interface.
func (e *WorkingCopyDirtyError) Error() string {
	return fmt.Sprintf("working copy %s has uncommitted changes", e.Container)
}

// Unwrap returns ErrWorkingCopyDirty for errors.Is() compatibility.
func (e *WorkingCopyDirtyError) Unwrap() error { return ErrWorkingCopyDirty }

// Diagnostic returns the raw status output.
func (e *WorkingCopyDirtyError) Diagnostic() string { return e.Status }

// Error implements the error interface.
func (e *UnpushedChangesError) Error() string {
	return fmt.Sprintf("working copy %s has commits that are not pushed upstream", e.Container)
}

// Unwrap returns ErrUnpushedChanges for errors.Is() compatibility.
func (e *UnpushedChangesError) Unwrap() error { return ErrUnpushedChanges }

// Diagnostic returns the raw diff summary.
func (e *UnpushedChangesError) Diagnostic() string { return e.DiffStat }

// Error implements the error interface.
func (e *InconsistentStateError) Error() string {
	msg := fmt.Sprintf("override for %s and container %s disagree: %s", e.Location, e.Container, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the sentinel and, when present, the failed step's error.
func (e *InconsistentStateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInconsistentOverrideState}
	}
	return []error{ErrInconsistentOverrideState, e.Err}
}
