// SPDX-License-Identifier: MPL-2.0

package override

import (
	"cmp"
	"context"
	"slices"

	"github.com/lktool/lktool/pkg/manifest"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

type (
	// State is a snapshot of one module's binding facts.
	State struct {
		Resolution registry.Resolution
		Container  types.FilesystemPath
		// ContainerPresent is true when the container directory exists.
		ContainerPresent bool
		// TablePresent is true when the manifest has an override table.
		TablePresent bool
		// LocationBound is true when the override table has an entry for the
		// module's source location.
		LocationBound bool
		// ModuleBound is true when that entry binds this module by name.
		ModuleBound bool
	}

	// LocationStatus describes one override table entry for Status.
	LocationStatus struct {
		Location         registry.SourceLocation
		Container        types.FilesystemPath
		ContainerPresent bool
		Modules          []ModuleBinding
	}

	// ModuleBinding is one module bound under a location.
	ModuleBinding struct {
		Name registry.ModuleName
		Path string
	}
)

// Bound reports whether the module is bound: entry and container agree.
func (s State) Bound() bool { return s.ContainerPresent && s.LocationBound }

// Consistent reports whether the manifest entry and the container agree.
func (s State) Consistent() bool { return s.ContainerPresent == s.LocationBound }

// Inspect resolves name and reports its binding facts without changing
// anything.
func (c *Controller) Inspect(_ context.Context, name string) (State, error) {
	st, _, err := c.inspect(name)
	return st, err
}

// Status lists every override in the manifest with its container presence,
// ordered by source location.
func (c *Controller) Status(_ context.Context) ([]LocationStatus, error) {
	m, err := manifest.Load(c.ManifestPath)
	if err != nil {
		return nil, err
	}
	overrides, err := m.Overrides()
	if err != nil {
		return nil, err
	}

	out := make([]LocationStatus, 0, len(overrides))
	for loc, bindings := range overrides {
		container := c.containerPath(loc)
		present, err := c.FS.Exists(container)
		if err != nil {
			return nil, err
		}
		ls := LocationStatus{Location: loc, Container: container, ContainerPresent: present}
		for name, b := range bindings {
			ls.Modules = append(ls.Modules, ModuleBinding{Name: name, Path: b.Path})
		}
		slices.SortFunc(ls.Modules, func(a, b ModuleBinding) int { return cmp.Compare(a.Name, b.Name) })
		out = append(out, ls)
	}
	slices.SortFunc(out, func(a, b LocationStatus) int { return cmp.Compare(a.Location, b.Location) })
	return out, nil
}

// inspect is Inspect plus the loaded manifest, so callers can mutate it.
func (c *Controller) inspect(name string) (State, *manifest.Manifest, error) {
	reg, err := registry.Load(c.RegistryPath)
	if err != nil {
		return State{}, nil, err
	}
	res, err := reg.Resolve(name)
	if err != nil {
		return State{}, nil, err
	}

	m, err := manifest.Load(c.ManifestPath)
	if err != nil {
		return State{}, nil, err
	}

	st := State{
		Resolution:    res,
		Container:     c.containerPath(res.Location),
		TablePresent:  m.HasOverrideTable(),
		LocationBound: m.HasOverride(res.Location),
	}
	if st.LocationBound {
		bindings, _, err := m.Override(res.Location)
		if err != nil {
			return State{}, nil, err
		}
		_, st.ModuleBound = bindings[res.Name]
	}
	if st.ContainerPresent, err = c.FS.Exists(st.Container); err != nil {
		return State{}, nil, err
	}
	return st, m, nil
}

func (c *Controller) containerPath(loc registry.SourceLocation) types.FilesystemPath {
	return c.ProjectDir.Join(string(loc.Container()))
}
