// SPDX-License-Identifier: MPL-2.0

// Package fsys is the filesystem port used for local containers and project
// templates.
package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/u-root/u-root/pkg/cp"

	"github.com/lktool/lktool/pkg/types"
)

type (
	// FileSystem is the set of tree operations the override and scaffold
	// workflows perform.
	FileSystem interface {
		// Exists reports whether path exists. Errors other than "not exist"
		// are returned.
		Exists(path types.FilesystemPath) (bool, error)
		// RemoveAll deletes path and everything below it.
		RemoveAll(path types.FilesystemPath) error
		// CopyTree copies the directory tree at from into to.
		CopyTree(from, to types.FilesystemPath) error
	}

	// OS implements FileSystem on the host filesystem.
	OS struct{}
)

// Exists reports whether path exists.
func (OS) Exists(path types.FilesystemPath) (bool, error) {
	_, err := os.Lstat(string(path))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// RemoveAll deletes path recursively. A missing path is not an error.
func (OS) RemoveAll(path types.FilesystemPath) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if err := os.RemoveAll(string(path)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// CopyTree copies from into to, preserving modes. Symlinks are recreated, not
// followed.
func (OS) CopyTree(from, to types.FilesystemPath) error {
	info, err := os.Stat(string(from))
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", from, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template %s is not a directory", from)
	}
	if err := cp.NoFollowSymlinks.CopyTree(string(from), string(to)); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", from, to, err)
	}
	return nil
}
