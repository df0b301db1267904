// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

var (
	// ErrVcsUnavailable is returned when the version-control tool cannot answer
	// a query: it is missing, the directory is not a repository, or there is
	// no upstream to compare against.
	ErrVcsUnavailable = errors.New("version control unavailable")
	// ErrCheckoutFailed is returned when a clone does not complete.
	ErrCheckoutFailed = errors.New("checkout failed")
	// ErrInvalidBackend is returned for an unknown backend name.
	ErrInvalidBackend = errors.New("invalid vcs backend")
)

type (
	// UnavailableError reports a failed query together with the tool output.
	UnavailableError struct {
		Op     string
		Dir    types.FilesystemPath
		Output string
		Err    error
	}

	// CheckoutFailedError reports a failed clone. ExitCode is the external
	// tool's exit status, or 1 when the backend has none.
	CheckoutFailedError struct {
		Location registry.SourceLocation
		Dest     types.FilesystemPath
		ExitCode types.ExitCode
		Output   string
		Err      error
	}

	// InvalidBackendError is returned by New for an unknown backend.
	InvalidBackendError struct {
		Value Backend
	}
)

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s in %s: %v", e.Op, e.Dir, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *UnavailableError) Unwrap() []error { return []error{ErrVcsUnavailable, e.Err} }

// Error implements the error interface.
func (e *CheckoutFailedError) Error() string {
	return fmt.Sprintf("clone of %s into %s failed (exit status %d): %v", e.Location, e.Dest, e.ExitCode, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *CheckoutFailedError) Unwrap() []error { return []error{ErrCheckoutFailed, e.Err} }

// Error implements the error interface.
func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid vcs backend %q (valid: %s, %s)", e.Value, BackendGit, BackendGoGit)
}

// Unwrap returns ErrInvalidBackend for errors.Is() compatibility.
func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }
