// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"io"
	"strings"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

const (
	// BackendGit drives the external git CLI.
	BackendGit Backend = "git"
	// BackendGoGit uses the embedded go-git implementation.
	BackendGoGit Backend = "go-git"

	// DefaultGitBinary is the git executable looked up on PATH.
	DefaultGitBinary = "git"
)

type (
	// Backend names a VersionControl implementation.
	Backend string

	// VersionControl is the subset of a version-control tool the override
	// workflow needs.
	VersionControl interface {
		// Clone checks location out into dest. dest must not exist.
		Clone(ctx context.Context, location registry.SourceLocation, dest types.FilesystemPath) error
		// Status returns the short status of the working copy at dir. Empty
		// output means clean.
		Status(ctx context.Context, dir types.FilesystemPath) (string, error)
		// UnpushedDiffStat returns a diff summary of the commits on HEAD that
		// are not on the upstream tracking reference. Empty output means
		// everything is pushed.
		UnpushedDiffStat(ctx context.Context, dir types.FilesystemPath) (string, error)
	}

	// Options configures New.
	Options struct {
		// GitBinary is the executable used by the git backend.
		GitBinary string
		// Progress receives clone progress. Nil discards it.
		Progress io.Writer
	}

	// CheckResult is a verdict plus the raw tool output that produced it.
	CheckResult struct {
		OK     bool
		Output string
	}

	// Checker derives clean and pushed verdicts from a VersionControl.
	Checker struct {
		VCS VersionControl
	}
)

// Validate returns an error if the backend is not known.
func (b Backend) Validate() error {
	switch b {
	case BackendGit, BackendGoGit:
		return nil
	default:
		return &InvalidBackendError{Value: b}
	}
}

// String returns the backend name.
func (b Backend) String() string { return string(b) }

// New returns the VersionControl for backend. An empty backend selects git.
func New(backend Backend, opts Options) (VersionControl, error) {
	if backend == "" {
		backend = BackendGit
	}
	if err := backend.Validate(); err != nil {
		return nil, err
	}
	switch backend {
	case BackendGoGit:
		return &GoGit{Progress: opts.Progress}, nil
	default:
		bin := opts.GitBinary
		if bin == "" {
			bin = DefaultGitBinary
		}
		return &ExecGit{Binary: bin, Progress: opts.Progress}, nil
	}
}

// CheckClean reports whether the working copy at dir has no local changes.
func (c *Checker) CheckClean(ctx context.Context, dir types.FilesystemPath) (CheckResult, error) {
	out, err := c.VCS.Status(ctx, dir)
	if err != nil {
		return CheckResult{}, err
	}
	return verdict(out), nil
}

// CheckPushed reports whether every commit on HEAD is on the upstream
// tracking reference.
func (c *Checker) CheckPushed(ctx context.Context, dir types.FilesystemPath) (CheckResult, error) {
	out, err := c.VCS.UnpushedDiffStat(ctx, dir)
	if err != nil {
		return CheckResult{}, err
	}
	return verdict(out), nil
}

func verdict(out string) CheckResult {
	return CheckResult{OK: strings.TrimSpace(out) == "", Output: out}
}
