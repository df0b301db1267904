// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// UpstreamRemote is the remote name SetUpstream configures.
	UpstreamRemote = "origin"

	testUpstreamURL = "https://example.org/kernel/upstream.git"
)

var testSignature = object.Signature{
	Name:  "lktool test",
	Email: "test@example.org",
	When:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
}

// InitRepo creates a non-bare repository at dir with a single commit
// containing README.
func InitRepo(t testing.TB, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository at %s: %v", dir, err)
	}
	CommitFile(t, repo, "README", "initial\n")
	return repo
}

// CommitFile writes name with content into the worktree and commits it,
// returning the new commit hash.
func CommitFile(t testing.TB, repo *git.Repository, name, content string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	MustWriteFile(t, filepath.Join(wt.Filesystem.Root(), name), content)
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
	sig := testSignature
	hash, err := wt.Commit("update "+name, &git.CommitOptions{Author: &sig, Committer: &sig})
	if err != nil {
		t.Fatalf("failed to commit %s: %v", name, err)
	}
	return hash
}

// SetUpstream makes the current branch track origin/<branch> and points that
// remote-tracking reference at hash, as if hash were the last fetched state.
func SetUpstream(t testing.TB, repo *git.Repository, hash plumbing.Hash) {
	t.Helper()
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	branch := head.Name().Short()

	if _, err := repo.Remote(UpstreamRemote); err != nil {
		if _, err := repo.CreateRemote(&config.RemoteConfig{Name: UpstreamRemote, URLs: []string{testUpstreamURL}}); err != nil {
			t.Fatalf("failed to create remote: %v", err)
		}
	}

	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to read repository config: %v", err)
	}
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: UpstreamRemote,
		Merge:  plumbing.NewBranchReferenceName(branch),
	}
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("failed to write repository config: %v", err)
	}

	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(UpstreamRemote, branch), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("failed to set upstream reference: %v", err)
	}
}

// PushedRepo creates a clean repository at dir whose HEAD equals its upstream.
func PushedRepo(t testing.TB, dir string) *git.Repository {
	t.Helper()
	repo := InitRepo(t, dir)
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	SetUpstream(t, repo, head.Hash())
	return repo
}

// Dirty modifies a tracked file in the worktree of repo without staging it.
func Dirty(t testing.TB, repo *git.Repository, name string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	path := filepath.Join(wt.Filesystem.Root(), name)
	if err := os.WriteFile(path, []byte("modified\n"), 0o644); err != nil {
		t.Fatalf("failed to modify %s: %v", name, err)
	}
}
