// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lktool/lktool/pkg/types"
)

var (
	// ErrModuleNotFound is returned when a name is absent from every searched class.
	ErrModuleNotFound = errors.New("module not found")
	// ErrRegistryParse is returned when the registry document cannot be decoded.
	ErrRegistryParse = errors.New("invalid registry document")
)

type (
	// ModuleNotFoundError reports which classes were searched for a name.
	// It wraps ErrModuleNotFound for errors.Is() compatibility. Err is set
	// when the name itself is unusable and nothing was searched.
	ModuleNotFoundError struct {
		Name     ModuleName
		Searched []Class
		Registry types.FilesystemPath
		Err      error
	}

	// ParseError is returned when the registry file is unreadable or malformed.
	// It wraps ErrRegistryParse and the decoder error.
	ParseError struct {
		Path types.FilesystemPath
		Err  error
	}
)

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("module %q not found: %v", e.Name, e.Err)
	}
	classes := make([]string, len(e.Searched))
	for i, c := range e.Searched {
		classes[i] = string(c)
	}
	msg := fmt.Sprintf("module %q not found in [%s]", e.Name, strings.Join(classes, ", "))
	if e.Registry != "" {
		msg += " of " + string(e.Registry)
	}
	return msg
}

// Unwrap returns ErrModuleNotFound and, for an unusable name, the validation
// error.
func (e *ModuleNotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrModuleNotFound, e.Err}
	}
	return []error{ErrModuleNotFound}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid registry document: %v", e.Err)
	}
	return fmt.Sprintf("invalid registry document %s: %v", e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrRegistryParse, e.Err} }
