// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"

	"github.com/lktool/lktool/internal/testutil"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

// backends returns every backend usable on this machine.
func backends(t *testing.T) map[string]VersionControl {
	t.Helper()
	out := map[string]VersionControl{"go-git": &GoGit{}}
	if _, err := exec.LookPath(DefaultGitBinary); err == nil {
		out["git"] = &ExecGit{Binary: DefaultGitBinary}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend Backend
		want    string
		wantErr bool
	}{
		{backend: "", want: "*vcs.ExecGit"},
		{backend: BackendGit, want: "*vcs.ExecGit"},
		{backend: BackendGoGit, want: "*vcs.GoGit"},
		{backend: "svn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			t.Parallel()

			got, err := New(tt.backend, Options{})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBackend) {
					t.Fatalf("New(%q) error = %v, want ErrInvalidBackend", tt.backend, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.backend, err)
			}
			if typeName := typeOf(got); typeName != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.backend, typeName, tt.want)
			}
		})
	}
}

func typeOf(v VersionControl) string {
	switch v.(type) {
	case *ExecGit:
		return "*vcs.ExecGit"
	case *GoGit:
		return "*vcs.GoGit"
	default:
		return "unknown"
	}
}

func TestCheckClean(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			repo := testutil.PushedRepo(t, dir)
			checker := &Checker{VCS: backend}
			ctx := context.Background()

			res, err := checker.CheckClean(ctx, types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("CheckClean() error = %v", err)
			}
			if !res.OK {
				t.Fatalf("CheckClean() on fresh repo = %+v, want OK", res)
			}

			testutil.Dirty(t, repo, "README")
			res, err = checker.CheckClean(ctx, types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("CheckClean() error = %v", err)
			}
			if res.OK {
				t.Fatal("CheckClean() on modified repo = OK")
			}
			if !strings.Contains(res.Output, "README") {
				t.Errorf("status output %q does not name the modified file", res.Output)
			}
		})
	}
}

func TestCheckPushed(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			repo := testutil.PushedRepo(t, dir)
			checker := &Checker{VCS: backend}
			ctx := context.Background()

			res, err := checker.CheckPushed(ctx, types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("CheckPushed() error = %v", err)
			}
			if !res.OK {
				t.Fatalf("CheckPushed() when HEAD == upstream = %+v, want OK", res)
			}

			testutil.CommitFile(t, repo, "local.txt", "not pushed\n")
			res, err = checker.CheckPushed(ctx, types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("CheckPushed() error = %v", err)
			}
			if res.OK {
				t.Fatal("CheckPushed() with a local commit = OK")
			}
			if !strings.Contains(res.Output, "local.txt") {
				t.Errorf("diff-stat %q does not name the committed file", res.Output)
			}

			// A commit is not dirt: the working copy is still clean.
			clean, err := checker.CheckClean(ctx, types.FilesystemPath(dir))
			if err != nil || !clean.OK {
				t.Errorf("CheckClean() after commit = %+v, %v; want OK", clean, err)
			}
		})
	}
}

func TestCheckPushedZeroNetDiff(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			repo := testutil.PushedRepo(t, dir)
			// Change README and change it back: two local commits, no net diff.
			testutil.CommitFile(t, repo, "README", "changed\n")
			testutil.CommitFile(t, repo, "README", "initial\n")

			res, err := (&Checker{VCS: backend}).CheckPushed(context.Background(), types.FilesystemPath(dir))
			if err != nil {
				t.Fatalf("CheckPushed() error = %v", err)
			}
			if res.OK {
				t.Fatal("CheckPushed() with reverting local commits = OK")
			}
			if !strings.Contains(res.Output, "is ahead of origin/") {
				t.Errorf("CheckPushed() output = %q, want an ahead-of-upstream line", res.Output)
			}
		})
	}
}

func TestCheckPushedBehindUpstream(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)
	ahead := testutil.CommitFile(t, repo, "upstream.txt", "remote only\n")
	// Move the local branch back one commit while upstream keeps the newer one.
	testutil.SetUpstream(t, repo, ahead)
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("CommitObject() error = %v", err)
	}
	parent, err := commit.Parent(0)
	if err != nil {
		t.Fatalf("Parent() error = %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: parent.Hash, Mode: git.HardReset}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	out, err := (&GoGit{}).UnpushedDiffStat(context.Background(), types.FilesystemPath(dir))
	if err != nil {
		t.Fatalf("UnpushedDiffStat() error = %v", err)
	}
	if out != "" {
		t.Errorf("UnpushedDiffStat() behind upstream = %q, want empty", out)
	}
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			notRepo := types.FilesystemPath(t.TempDir())
			missing := types.FilesystemPath(filepath.Join(t.TempDir(), "missing"))

			for _, dir := range []types.FilesystemPath{notRepo, missing} {
				if _, err := backend.Status(ctx, dir); !errors.Is(err, ErrVcsUnavailable) {
					t.Errorf("Status(%s) error = %v, want ErrVcsUnavailable", dir, err)
				}
				if _, err := backend.UnpushedDiffStat(ctx, dir); !errors.Is(err, ErrVcsUnavailable) {
					t.Errorf("UnpushedDiffStat(%s) error = %v, want ErrVcsUnavailable", dir, err)
				}
			}

			// A repository without upstream cannot answer the pushed query.
			noUpstream := t.TempDir()
			testutil.InitRepo(t, noUpstream)
			if _, err := backend.UnpushedDiffStat(ctx, types.FilesystemPath(noUpstream)); !errors.Is(err, ErrVcsUnavailable) {
				t.Errorf("UnpushedDiffStat() without upstream error = %v, want ErrVcsUnavailable", err)
			}
		})
	}
}

func TestExecGitMissingBinary(t *testing.T) {
	t.Parallel()

	g := &ExecGit{Binary: "lktool-no-such-git"}
	dest := types.FilesystemPath(filepath.Join(t.TempDir(), "dest"))
	err := g.Clone(context.Background(), "https://example.org/x", dest)
	if !errors.Is(err, ErrVcsUnavailable) {
		t.Errorf("Clone() with missing binary error = %v, want ErrVcsUnavailable", err)
	}
}

func TestExecGitClone(t *testing.T) {
	if _, err := exec.LookPath(DefaultGitBinary); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	ctx := context.Background()
	g := &ExecGit{Binary: DefaultGitBinary}

	src := t.TempDir()
	testutil.InitRepo(t, src)
	dest := types.FilesystemPath(filepath.Join(t.TempDir(), "repo-x"))
	if err := g.Clone(ctx, registry.SourceLocation(src), dest); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	out, err := g.UnpushedDiffStat(ctx, dest)
	if err != nil || out != "" {
		t.Errorf("fresh clone UnpushedDiffStat() = %q, %v; want empty", out, err)
	}

	bad := types.FilesystemPath(filepath.Join(t.TempDir(), "bad"))
	err = g.Clone(ctx, registry.SourceLocation(filepath.Join(src, "does-not-exist")), bad)
	var cfe *CheckoutFailedError
	if !errors.As(err, &cfe) {
		t.Fatalf("Clone() of missing source error = %v, want *CheckoutFailedError", err)
	}
	if cfe.ExitCode == 0 {
		t.Error("CheckoutFailedError.ExitCode = 0, want the git exit status")
	}
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Error("CheckoutFailedError does not unwrap to ErrCheckoutFailed")
	}
}
