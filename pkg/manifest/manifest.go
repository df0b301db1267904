// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

const (
	// DefaultFileName is the manifest file name inside a project.
	DefaultFileName = "Cargo.toml"
	// OverrideTableKey is the top-level table holding override bindings.
	OverrideTableKey = "patch"
	// DependenciesKey is the top-level dependencies table.
	DependenciesKey = "dependencies"
	// PackageKey is the top-level package table.
	PackageKey = "package"

	pathKey = "path"
)

type (
	// Binding points a module at its local checkout, relative to the
	// manifest's directory.
	Binding struct {
		Path string `toml:"path" json:"path"`
	}

	// Overrides is a typed snapshot of the override table.
	Overrides map[registry.SourceLocation]map[registry.ModuleName]Binding

	// Manifest is a parsed manifest document. Mutations only touch the
	// in-memory document until Save is called.
	Manifest struct {
		path types.FilesystemPath
		doc  map[string]any
	}
)

// Load reads and parses the manifest at path.
func Load(path types.FilesystemPath) (*Manifest, error) {
	if err := path.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes manifest bytes. path is recorded for Save and diagnostics.
func Parse(path types.FilesystemPath, data []byte) (*Manifest, error) {
	doc := make(map[string]any)
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			err = fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	m := &Manifest{path: path, doc: doc}
	if _, err := m.overrideTable(false); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() types.FilesystemPath { return m.path }

// HasOverrideTable reports whether the override table exists.
func (m *Manifest) HasOverrideTable() bool {
	_, ok := m.doc[OverrideTableKey]
	return ok
}

// HasOverride reports whether an override sub-table exists for loc.
func (m *Manifest) HasOverride(loc registry.SourceLocation) bool {
	table, err := m.overrideTable(false)
	if err != nil || table == nil {
		return false
	}
	_, ok := table[string(loc)]
	return ok
}

// AddOverride binds name to localPath under loc, creating the override table
// and the location's sub-table when missing. An existing binding for name is
// overwritten.
func (m *Manifest) AddOverride(loc registry.SourceLocation, name registry.ModuleName, localPath string) error {
	table, err := m.overrideTable(true)
	if err != nil {
		return err
	}
	sub, ok := table[string(loc)].(map[string]any)
	if !ok {
		if _, exists := table[string(loc)]; exists {
			return m.shapeError("%s.%q is not a table", OverrideTableKey, loc)
		}
		sub = make(map[string]any)
		table[string(loc)] = sub
	}
	sub[string(name)] = map[string]any{pathKey: localPath}
	return nil
}

// RemoveOverride drops the whole sub-table for loc, unbinding every module
// that shares the location. It reports whether a sub-table was removed and
// fails with ErrOverrideTableMissing when there is no override table.
func (m *Manifest) RemoveOverride(loc registry.SourceLocation) (bool, error) {
	table, err := m.overrideTable(false)
	if err != nil {
		return false, err
	}
	if table == nil {
		return false, &OverrideTableMissingError{Path: m.path}
	}
	if _, ok := table[string(loc)]; !ok {
		return false, nil
	}
	delete(table, string(loc))
	return true, nil
}

// Override returns the bindings under loc and whether the sub-table exists.
// Every entry of that sub-table must be a table with a string path.
func (m *Manifest) Override(loc registry.SourceLocation) (map[registry.ModuleName]Binding, bool, error) {
	table, err := m.overrideTable(false)
	if err != nil || table == nil {
		return nil, false, err
	}
	raw, ok := table[string(loc)]
	if !ok {
		return nil, false, nil
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return nil, true, m.shapeError("%s.%q is not a table", OverrideTableKey, loc)
	}
	bindings := make(map[registry.ModuleName]Binding, len(sub))
	for name, rawBinding := range sub {
		p, ok := localPath(rawBinding)
		if !ok {
			return nil, true, m.shapeError("%s.%q.%s has no string path", OverrideTableKey, loc, name)
		}
		bindings[registry.ModuleName(name)] = Binding{Path: p}
	}
	return bindings, true, nil
}

// Overrides returns a typed copy of the local path bindings in the override
// table. Entries that are not path overrides, such as
// `[patch.crates-io] log = { git = "..." }`, are skipped, and so are
// locations left without any path binding.
func (m *Manifest) Overrides() (Overrides, error) {
	table, err := m.overrideTable(false)
	if err != nil {
		return nil, err
	}
	out := make(Overrides, len(table))
	for loc, raw := range table {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, m.shapeError("%s.%q is not a table", OverrideTableKey, loc)
		}
		bindings := make(map[registry.ModuleName]Binding, len(sub))
		for name, rawBinding := range sub {
			if p, ok := localPath(rawBinding); ok {
				bindings[registry.ModuleName(name)] = Binding{Path: p}
			}
		}
		if len(bindings) > 0 {
			out[registry.SourceLocation(loc)] = bindings
		}
	}
	return out, nil
}

func localPath(raw any) (string, bool) {
	spec, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	p, ok := spec[pathKey].(string)
	return p, ok
}

// SetDependency sets a dependency spec, creating the dependencies table if
// needed.
func (m *Manifest) SetDependency(name string, spec map[string]any) error {
	deps, err := m.table(DependenciesKey, true)
	if err != nil {
		return err
	}
	deps[name] = spec
	return nil
}

// Dependency returns the raw spec of a dependency.
func (m *Manifest) Dependency(name string) (any, bool) {
	deps, err := m.table(DependenciesKey, false)
	if err != nil || deps == nil {
		return nil, false
	}
	spec, ok := deps[name]
	return spec, ok
}

// SetPackageName sets package.name.
func (m *Manifest) SetPackageName(name string) error {
	pkg, err := m.table(PackageKey, true)
	if err != nil {
		return err
	}
	pkg["name"] = name
	return nil
}

// Marshal serializes the in-memory document.
func (m *Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m.doc)
}

// Save serializes the document and replaces the file atomically: the bytes
// are fully produced before anything touches disk, and the old content stays
// in place until the rename.
func (m *Manifest) Save() error {
	data, err := m.Marshal()
	if err != nil {
		return &WriteError{Path: m.path, Err: err}
	}
	if err := atomicWriteFile(string(m.path), data); err != nil {
		return &WriteError{Path: m.path, Err: err}
	}
	return nil
}

func (m *Manifest) overrideTable(create bool) (map[string]any, error) {
	return m.table(OverrideTableKey, create)
}

func (m *Manifest) table(key string, create bool) (map[string]any, error) {
	raw, ok := m.doc[key]
	if !ok {
		if !create {
			return nil, nil
		}
		t := make(map[string]any)
		m.doc[key] = t
		return t, nil
	}
	t, ok := raw.(map[string]any)
	if !ok {
		return nil, m.shapeError("%s is not a table", key)
	}
	return t, nil
}

func (m *Manifest) shapeError(format string, args ...any) error {
	return &ParseError{Path: m.path, Err: fmt.Errorf(format, args...)}
}

// atomicWriteFile writes data to a temporary file next to path and renames it
// over path, keeping the original file mode.
func atomicWriteFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
