// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/lktool/lktool/pkg/types"
)

type (
	// Registry is a parsed registry document.
	Registry struct {
		path    types.FilesystemPath
		classes map[Class]map[ModuleName]SourceLocation
	}

	// document is the TOML shape of Repo.toml. Unknown tables are ignored.
	document struct {
		Shared map[string]string `toml:"shared"`
		Root   map[string]string `toml:"root"`
	}
)

// Load reads and parses the registry at path.
func Load(path types.FilesystemPath) (*Registry, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	reg, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	reg.path = path
	return reg, nil
}

// Parse decodes a registry document. Every location must yield a usable
// container name.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, &ParseError{Err: fmt.Errorf("line %d, column %d: %w", row, col, err)}
		}
		return nil, &ParseError{Err: err}
	}

	reg := &Registry{classes: make(map[Class]map[ModuleName]SourceLocation, len(searchOrder))}
	for class, table := range map[Class]map[string]string{ClassShared: doc.Shared, ClassRoot: doc.Root} {
		entries := make(map[ModuleName]SourceLocation, len(table))
		for rawName, rawLoc := range table {
			name := ModuleName(rawName)
			if err := name.Validate(); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("[%s]: %w", class, err)}
			}
			loc := SourceLocation(strings.TrimSpace(rawLoc))
			if err := loc.Validate(); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("[%s] %s: %w", class, name, err)}
			}
			entries[name] = loc
		}
		reg.classes[class] = entries
	}
	return reg, nil
}

// Path returns the file the registry was loaded from, if any.
func (r *Registry) Path() types.FilesystemPath { return r.path }

// Resolve looks name up in the shared class, then the root class. Trailing
// path separators in name are ignored.
func (r *Registry) Resolve(name string) (Resolution, error) {
	return r.resolveIn(NormalizeModuleName(name), searchOrder)
}

// Lookup searches a single class.
func (r *Registry) Lookup(class Class, name string) (Resolution, error) {
	if err := class.Validate(); err != nil {
		return Resolution{}, err
	}
	return r.resolveIn(NormalizeModuleName(name), []Class{class})
}

func (r *Registry) resolveIn(name ModuleName, classes []Class) (Resolution, error) {
	if err := name.Validate(); err != nil {
		return Resolution{}, &ModuleNotFoundError{Name: name, Registry: r.path, Err: err}
	}
	for _, class := range classes {
		if loc, ok := r.classes[class][name]; ok {
			return Resolution{Name: name, Location: loc, Class: class}, nil
		}
	}
	return Resolution{}, &ModuleNotFoundError{Name: name, Searched: slices.Clone(classes), Registry: r.path}
}

// Entries lists registry rows sorted by class priority, then name. An empty
// class lists every class; a non-empty pattern keeps only names matching the
// doublestar glob.
func (r *Registry) Entries(class Class, pattern string) ([]Entry, error) {
	classes := searchOrder
	if class != "" {
		if err := class.Validate(); err != nil {
			return nil, err
		}
		classes = []Class{class}
	}
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid match pattern %q", pattern)
	}

	var entries []Entry
	for _, c := range classes {
		names := make([]ModuleName, 0, len(r.classes[c]))
		for name := range r.classes[c] {
			if pattern != "" {
				if ok, _ := doublestar.Match(pattern, string(name)); !ok {
					continue
				}
			}
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			entries = append(entries, Entry{Class: c, Name: name, Location: r.classes[c][name]})
		}
	}
	return entries, nil
}

// ResolveRoot looks up a root module in the registry bundled with a project,
// at <projectDir>/Repo.toml. It is used while scaffolding a new project.
func ResolveRoot(projectDir types.FilesystemPath, root string) (Resolution, error) {
	reg, err := Load(projectDir.Join(DefaultFileName))
	if err != nil {
		return Resolution{}, err
	}
	return reg.Lookup(ClassRoot, root)
}
