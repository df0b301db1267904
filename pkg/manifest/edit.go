// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

// AddOverride loads the manifest at path, binds name under loc and writes
// the result back. The file is untouched when any step fails.
func AddOverride(path types.FilesystemPath, loc registry.SourceLocation, name registry.ModuleName, localPath string) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	if err := m.AddOverride(loc, name, localPath); err != nil {
		return err
	}
	return m.Save()
}

// RemoveOverride loads the manifest at path and removes the sub-table for
// loc. The file is only rewritten when something was removed.
func RemoveOverride(path types.FilesystemPath, loc registry.SourceLocation) (bool, error) {
	m, err := Load(path)
	if err != nil {
		return false, err
	}
	removed, err := m.RemoveOverride(loc)
	if err != nil || !removed {
		return false, err
	}
	if err := m.Save(); err != nil {
		return false, err
	}
	return true, nil
}
