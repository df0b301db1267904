// SPDX-License-Identifier: MPL-2.0

package override

import (
	"context"
	"log/slog"

	"github.com/lktool/lktool/internal/fsys"
	"github.com/lktool/lktool/internal/vcs"
	"github.com/lktool/lktool/pkg/manifest"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

const (
	// OutcomeBound means a new binding was written.
	OutcomeBound Outcome = "bound"
	// OutcomeAlreadyBound means the module was bound before the call.
	OutcomeAlreadyBound Outcome = "already-bound"
	// OutcomeResumed means the container was present without its manifest
	// entry, typically after an interrupted Get, and the entry was written.
	OutcomeResumed Outcome = "resumed"
	// OutcomeUnbound means the entry and the container were removed.
	OutcomeUnbound Outcome = "unbound"
	// OutcomeAlreadyUnbound means neither entry nor container existed.
	OutcomeAlreadyUnbound Outcome = "already-unbound"
	// OutcomePruned means Put cleaned up one half of a diverged binding.
	OutcomePruned Outcome = "pruned"
)

type (
	// Outcome names the transition a Get or Put performed.
	Outcome string

	// Controller runs the bind and unbind workflows for one project. The
	// registry and manifest are re-read on every call.
	Controller struct {
		RegistryPath types.FilesystemPath
		ManifestPath types.FilesystemPath
		// ProjectDir is where containers are checked out.
		ProjectDir types.FilesystemPath
		VCS        vcs.VersionControl
		FS         fsys.FileSystem
		Logger     *slog.Logger
	}

	// PutOptions tunes Put.
	PutOptions struct {
		// Prune drops whichever half of a diverged binding remains instead of
		// reporting ErrInconsistentOverrideState. Safety checks still apply to
		// a present container.
		Prune bool
	}

	// Result describes a completed Get or Put.
	Result struct {
		Outcome    Outcome
		Resolution registry.Resolution
		Container  types.FilesystemPath
		// BindingPath is the manifest path of the module, relative to the
		// project directory.
		BindingPath string
	}
)

// Get binds name to a local working copy, cloning its source location when
// the container is not checked out yet.
func (c *Controller) Get(ctx context.Context, name string) (Result, error) {
	st, m, err := c.inspect(name)
	if err != nil {
		return Result{}, err
	}
	res := c.result(st)
	log := c.logger().With("module", st.Resolution.Name, "location", st.Resolution.Location, "container", st.Container)

	if st.ContainerPresent {
		switch {
		case st.ModuleBound:
			log.Debug("module already bound")
			res.Outcome = OutcomeAlreadyBound
			return res, nil
		case st.LocationBound:
			// Another module of the same repository is bound; share the container.
			log.Debug("binding module into existing container")
			res.Outcome = OutcomeBound
		default:
			log.Debug("container present without override entry, resuming bind")
			res.Outcome = OutcomeResumed
		}
		if err := c.bind(m, st, log); err != nil {
			return Result{}, err
		}
		return res, nil
	}

	if st.LocationBound {
		return Result{}, &InconsistentStateError{
			Location:  st.Resolution.Location,
			Container: st.Container,
			Reason:    "manifest has an override entry but the container is not checked out",
		}
	}

	// Relative locations are written relative to the project, not the
	// process working directory.
	src := st.Resolution.Location.Against(c.ProjectDir)
	log.Debug("cloning", "source", src)
	if err := c.VCS.Clone(ctx, src, st.Container); err != nil {
		// A half-finished clone would later pass for a bound container.
		if rmErr := c.FS.RemoveAll(st.Container); rmErr != nil {
			log.Warn("failed to remove partial checkout", "error", rmErr)
		}
		return Result{}, err
	}

	if err := c.bind(m, st, log); err != nil {
		return Result{}, err
	}
	res.Outcome = OutcomeBound
	return res, nil
}

// Put retires the binding of name. The container must be clean and fully
// pushed; its manifest entry is removed before the directory is deleted.
func (c *Controller) Put(ctx context.Context, name string, opts PutOptions) (Result, error) {
	st, m, err := c.inspect(name)
	if err != nil {
		return Result{}, err
	}
	res := c.result(st)
	log := c.logger().With("module", st.Resolution.Name, "location", st.Resolution.Location, "container", st.Container)

	if !st.ContainerPresent {
		if !st.LocationBound {
			log.Debug("nothing bound")
			res.Outcome = OutcomeAlreadyUnbound
			return res, nil
		}
		if !opts.Prune {
			return Result{}, &InconsistentStateError{
				Location:  st.Resolution.Location,
				Container: st.Container,
				Reason:    "manifest has an override entry but the container is missing (use --prune to drop the entry)",
			}
		}
		log.Debug("pruning stale override entry")
		if err := c.unbind(m, st); err != nil {
			return Result{}, err
		}
		res.Outcome = OutcomePruned
		return res, nil
	}

	if err := c.checkSafe(ctx, st, log); err != nil {
		return Result{}, err
	}

	if !st.LocationBound {
		if !opts.Prune {
			if !st.TablePresent {
				return Result{}, &manifest.OverrideTableMissingError{Path: c.ManifestPath}
			}
			return Result{}, &InconsistentStateError{
				Location:  st.Resolution.Location,
				Container: st.Container,
				Reason:    "container is checked out but the manifest has no override entry (use --prune to delete it)",
			}
		}
		log.Debug("pruning unbound container")
		if err := c.FS.RemoveAll(st.Container); err != nil {
			return Result{}, err
		}
		res.Outcome = OutcomePruned
		return res, nil
	}

	log.Debug("removing override entry")
	if err := c.unbind(m, st); err != nil {
		return Result{}, err
	}
	log.Debug("deleting container")
	if err := c.FS.RemoveAll(st.Container); err != nil {
		return Result{}, &InconsistentStateError{
			Location:  st.Resolution.Location,
			Container: st.Container,
			Reason:    "override entry was removed but the container could not be deleted; delete it by hand",
			Err:       err,
		}
	}
	res.Outcome = OutcomeUnbound
	return res, nil
}

func (c *Controller) checkSafe(ctx context.Context, st State, log *slog.Logger) error {
	checker := &vcs.Checker{VCS: c.VCS}

	log.Debug("checking working copy is clean")
	clean, err := checker.CheckClean(ctx, st.Container)
	if err != nil {
		return err
	}
	if !clean.OK {
		return &WorkingCopyDirtyError{Container: st.Container, Status: clean.Output}
	}

	log.Debug("checking working copy is pushed")
	pushed, err := checker.CheckPushed(ctx, st.Container)
	if err != nil {
		return err
	}
	if !pushed.OK {
		return &UnpushedChangesError{Container: st.Container, DiffStat: pushed.Output}
	}
	return nil
}

func (c *Controller) bind(m *manifest.Manifest, st State, log *slog.Logger) error {
	log.Debug("writing override entry", "path", st.Resolution.BindingPath())
	if err := m.AddOverride(st.Resolution.Location, st.Resolution.Name, st.Resolution.BindingPath()); err != nil {
		return err
	}
	return m.Save()
}

func (c *Controller) unbind(m *manifest.Manifest, st State) error {
	if _, err := m.RemoveOverride(st.Resolution.Location); err != nil {
		return err
	}
	return m.Save()
}

func (c *Controller) result(st State) Result {
	return Result{
		Resolution:  st.Resolution,
		Container:   st.Container,
		BindingPath: st.Resolution.BindingPath(),
	}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
