// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/lktool/lktool/pkg/types"
)

const (
	// ClassShared holds modules shared between projects (common modules).
	ClassShared Class = "shared"
	// ClassRoot holds root (top) modules that anchor a kernel project.
	ClassRoot Class = "root"

	// DefaultFileName is the registry file name inside a project.
	DefaultFileName = "Repo.toml"
)

var (
	// ErrInvalidModuleName is the sentinel error wrapped by InvalidModuleNameError.
	ErrInvalidModuleName = errors.New("invalid module name")
	// ErrInvalidSourceLocation is the sentinel error wrapped by InvalidSourceLocationError.
	ErrInvalidSourceLocation = errors.New("invalid source location")
	// ErrInvalidClass is returned when a Class value is not recognized.
	ErrInvalidClass = errors.New("invalid module class")

	// searchOrder is the class priority used by Resolve.
	searchOrder = []Class{ClassShared, ClassRoot}
)

type (
	// ModuleName is a bare module name as written in the registry and on the
	// command line.
	ModuleName string

	// InvalidModuleNameError is returned when a ModuleName is empty or
	// contains whitespace or path separators.
	InvalidModuleNameError struct {
		Value ModuleName
	}

	// SourceLocation identifies where a module's source lives, usually a
	// repository URL. Several modules may share one location.
	SourceLocation string

	// InvalidSourceLocationError is returned when a SourceLocation has no
	// usable last path segment to name its container.
	InvalidSourceLocationError struct {
		Value SourceLocation
	}

	// ContainerName is the on-disk directory a source location is checked out
	// into, relative to the project root.
	ContainerName string

	// Class names a table of the registry document.
	Class string

	// InvalidClassError is returned when a Class value is not recognized.
	InvalidClassError struct {
		Value Class
	}

	// Resolution is the result of a successful lookup.
	Resolution struct {
		Name     ModuleName
		Location SourceLocation
		Class    Class
	}

	// Entry is a single registry row, used for listing.
	Entry struct {
		Class    Class          `json:"class" yaml:"class"`
		Name     ModuleName     `json:"name" yaml:"name"`
		Location SourceLocation `json:"location" yaml:"location"`
	}
)

// NormalizeModuleName trims surrounding whitespace and trailing path
// separators, so shell-completed directory names ("alpha/") resolve.
func NormalizeModuleName(raw string) ModuleName {
	return ModuleName(strings.TrimRight(strings.TrimSpace(raw), `/\`))
}

// String returns the module name.
func (n ModuleName) String() string { return string(n) }

// Validate returns an error if the name is empty or contains whitespace or
// path separators.
func (n ModuleName) Validate() error {
	if n == "" || strings.ContainsAny(string(n), " \t\r\n/\\") {
		return &InvalidModuleNameError{Value: n}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q", e.Value)
}

// Unwrap returns ErrInvalidModuleName for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }

// String returns the location.
func (l SourceLocation) String() string { return string(l) }

// Container derives the local container name: the last path segment of the
// location with any trailing slash and ".git" suffix removed. Both "/" and
// ":" separate segments so scp-style addresses ("git@host:repo-x.git") work.
func (l SourceLocation) Container() ContainerName {
	s := strings.TrimRight(strings.TrimSpace(string(l)), "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return ContainerName(strings.TrimSuffix(s, ".git"))
}

// IsRelativePath reports whether the location is a relative filesystem path,
// as opposed to a URL, an scp-style "host:path" address or an absolute path.
func (l SourceLocation) IsRelativePath() bool {
	s := strings.TrimSpace(string(l))
	if s == "" || strings.Contains(s, "://") || filepath.IsAbs(s) || filepath.VolumeName(s) != "" {
		return false
	}
	if i := strings.IndexByte(s, ':'); i >= 0 && !strings.ContainsAny(s[:i], `/\`) {
		return false
	}
	return true
}

// Against returns the location to fetch from when relative paths are taken
// relative to base. Other locations are returned unchanged.
func (l SourceLocation) Against(base types.FilesystemPath) SourceLocation {
	if !l.IsRelativePath() {
		return l
	}
	return SourceLocation(filepath.Join(string(base), strings.TrimSpace(string(l))))
}

// Validate returns an error if the location is blank or yields no usable
// container name.
func (l SourceLocation) Validate() error {
	if strings.TrimSpace(string(l)) == "" {
		return &InvalidSourceLocationError{Value: l}
	}
	return l.Container().validate(l)
}

// Error implements the error interface.
func (e *InvalidSourceLocationError) Error() string {
	return fmt.Sprintf("invalid source location %q: no directory name can be derived from it", e.Value)
}

// Unwrap returns ErrInvalidSourceLocation for errors.Is() compatibility.
func (e *InvalidSourceLocationError) Unwrap() error { return ErrInvalidSourceLocation }

// String returns the container directory name.
func (c ContainerName) String() string { return string(c) }

func (c ContainerName) validate(from SourceLocation) error {
	switch {
	case c == "", c == ".", c == "..", strings.ContainsAny(string(c), `\`):
		return &InvalidSourceLocationError{Value: from}
	}
	return nil
}

// Validate returns an error if the class is not one of the known classes.
func (c Class) Validate() error {
	switch c {
	case ClassShared, ClassRoot:
		return nil
	}
	return &InvalidClassError{Value: c}
}

// Error implements the error interface.
func (e *InvalidClassError) Error() string {
	return fmt.Sprintf("invalid module class %q (valid: %s, %s)", e.Value, ClassShared, ClassRoot)
}

// Unwrap returns ErrInvalidClass for errors.Is() compatibility.
func (e *InvalidClassError) Unwrap() error { return ErrInvalidClass }

// Container returns the container the resolved module is checked out into.
func (r Resolution) Container() ContainerName {
	return r.Location.Container()
}

// BindingPath returns the manifest path of the module relative to the
// project root: "container/name", or just "name" when the location holds a
// single module named after its repository.
func (r Resolution) BindingPath() string {
	c := r.Container()
	if string(c) == string(r.Name) {
		return string(c)
	}
	return path.Join(string(c), string(r.Name))
}
