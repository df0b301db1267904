// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

var errNoUpstream = errors.New("no upstream configured")

// GoGit implements VersionControl with the embedded go-git library.
type GoGit struct {
	// Progress receives clone progress messages.
	Progress io.Writer
}

// Clone performs a full clone of location into dest.
func (g *GoGit) Clone(ctx context.Context, location registry.SourceLocation, dest types.FilesystemPath) error {
	_, err := git.PlainCloneContext(ctx, string(dest), false, &git.CloneOptions{
		URL:      string(location),
		Progress: g.Progress,
	})
	if err != nil {
		return &CheckoutFailedError{
			Location: location,
			Dest:     dest,
			ExitCode: types.ExitCodeOf(err),
			Err:      err,
		}
	}
	return nil
}

// Status returns the worktree status in short format.
func (g *GoGit) Status(_ context.Context, dir types.FilesystemPath) (string, error) {
	repo, err := open(dir, "status")
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", &UnavailableError{Op: "status", Dir: dir, Err: err}
	}
	status, err := wt.Status()
	if err != nil {
		return "", &UnavailableError{Op: "status", Dir: dir, Err: err}
	}
	if status.IsClean() {
		return "", nil
	}
	return status.String(), nil
}

// UnpushedDiffStat compares HEAD with the upstream remote-tracking reference
// of the current branch. Commits that are ahead but touch no files are still
// reported.
func (g *GoGit) UnpushedDiffStat(_ context.Context, dir types.FilesystemPath) (string, error) {
	const op = "diff against upstream"

	repo, err := open(dir, op)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", &UnavailableError{Op: op, Dir: dir, Err: err}
	}
	if !head.Name().IsBranch() {
		return "", &UnavailableError{Op: op, Dir: dir, Err: errors.New("HEAD is detached")}
	}

	upstreamName, err := upstreamRef(repo, head.Name())
	if err != nil {
		return "", &UnavailableError{Op: op, Dir: dir, Err: err}
	}
	upstream, err := repo.Reference(upstreamName, true)
	if err != nil {
		return "", &UnavailableError{Op: op, Dir: dir, Err: fmt.Errorf("upstream %s: %w", upstreamName.Short(), err)}
	}
	if upstream.Hash() == head.Hash() {
		return "", nil
	}

	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", &UnavailableError{Op: op, Dir: dir, Err: err}
	}
	upstreamCommit, err := repo.CommitObject(upstream.Hash())
	if err != nil {
		return "", &UnavailableError{Op: op, Dir: dir, Err: err}
	}

	// Behind (or equal to) upstream: nothing local to lose.
	if ancestor, err := headCommit.IsAncestor(upstreamCommit); err == nil && ancestor {
		return "", nil
	}

	ahead := fmt.Sprintf("%s is ahead of %s\n", head.Name().Short(), upstreamName.Short())
	bases, err := headCommit.MergeBase(upstreamCommit)
	if err != nil || len(bases) == 0 {
		return ahead, nil //nolint:nilerr // unrelated histories still count as unpushed
	}
	patch, err := bases[0].Patch(headCommit)
	if err != nil {
		return ahead, nil //nolint:nilerr // the verdict does not depend on the summary
	}
	if stats := patch.Stats().String(); stats != "" {
		return stats, nil
	}
	return ahead, nil
}

func open(dir types.FilesystemPath, op string) (*git.Repository, error) {
	repo, err := git.PlainOpen(string(dir))
	if err != nil {
		return nil, &UnavailableError{Op: op, Dir: dir, Err: err}
	}
	return repo, nil
}

// upstreamRef resolves the remote-tracking reference configured for branch.
func upstreamRef(repo *git.Repository, branch plumbing.ReferenceName) (plumbing.ReferenceName, error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", err
	}
	b, ok := cfg.Branches[branch.Short()]
	if !ok || b.Remote == "" || b.Merge == "" {
		return "", fmt.Errorf("%w for branch %s", errNoUpstream, branch.Short())
	}
	if b.Remote == "." {
		return b.Merge, nil
	}
	return plumbing.NewRemoteReferenceName(b.Remote, b.Merge.Short()), nil
}
