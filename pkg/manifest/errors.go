// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"

	"github.com/lktool/lktool/pkg/types"
)

var (
	// ErrManifestParse is returned when the manifest cannot be read or decoded,
	// or when a known table has an unexpected shape.
	ErrManifestParse = errors.New("manifest parse error")
	// ErrManifestWrite is returned when the rewritten manifest cannot be stored.
	ErrManifestWrite = errors.New("manifest write error")
	// ErrOverrideTableMissing is returned when an override is removed from a
	// manifest that has no override table at all.
	ErrOverrideTableMissing = errors.New("override table missing")
)

type (
	// ParseError wraps ErrManifestParse with the file and cause.
	ParseError struct {
		Path types.FilesystemPath
		Err  error
	}

	// WriteError wraps ErrManifestWrite with the file and cause.
	WriteError struct {
		Path types.FilesystemPath
		Err  error
	}

	// OverrideTableMissingError wraps ErrOverrideTableMissing.
	OverrideTableMissingError struct {
		Path types.FilesystemPath
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrManifestParse, e.Err} }

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *WriteError) Unwrap() []error { return []error{ErrManifestWrite, e.Err} }

// Error implements the error interface.
func (e *OverrideTableMissingError) Error() string {
	return fmt.Sprintf("manifest %s has no [%s] table: nothing was ever bound", e.Path, OverrideTableKey)
}

// Unwrap returns ErrOverrideTableMissing for errors.Is() compatibility.
func (e *OverrideTableMissingError) Unwrap() error { return ErrOverrideTableMissing }
