// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

// ExecGit implements VersionControl by running the git CLI.
type ExecGit struct {
	// Binary is the git executable, resolved on PATH when not absolute.
	Binary string
	// Progress receives the clone's stderr stream as it runs.
	Progress io.Writer
}

// Clone runs `git clone <location> <dest>`.
func (g *ExecGit) Clone(ctx context.Context, location registry.SourceLocation, dest types.FilesystemPath) error {
	var out bytes.Buffer
	cmd := g.command(ctx, "", "clone", string(location), string(dest))
	cmd.Stdout = &out
	cmd.Stderr = &out
	if g.Progress != nil {
		cmd.Stderr = io.MultiWriter(&out, g.Progress)
	}

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &UnavailableError{Op: "git clone", Dir: dest, Err: err}
		}
		return &CheckoutFailedError{
			Location: location,
			Dest:     dest,
			ExitCode: types.ExitCodeOf(err),
			Output:   out.String(),
			Err:      err,
		}
	}
	return nil
}

// Status runs `git status --porcelain` in dir.
func (g *ExecGit) Status(ctx context.Context, dir types.FilesystemPath) (string, error) {
	return g.query(ctx, dir, "status", "--porcelain")
}

// UnpushedDiffStat runs `git diff --stat @{upstream}...HEAD` in dir. Commits
// that are ahead but have no net diff are caught with
// `git rev-list --count @{upstream}..HEAD` and reported as
// "<branch> is ahead of <upstream>". No fetch is performed, so the comparison
// is against the last known remote state.
func (g *ExecGit) UnpushedDiffStat(ctx context.Context, dir types.FilesystemPath) (string, error) {
	stat, err := g.query(ctx, dir, "diff", "--stat", "@{upstream}...HEAD")
	if err != nil || stat != "" {
		return stat, err
	}

	count, err := g.query(ctx, dir, "rev-list", "--count", "@{upstream}..HEAD")
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil {
		return "", &UnavailableError{Op: "git rev-list", Dir: dir, Output: count, Err: err}
	}
	if n == 0 {
		return "", nil
	}

	names, err := g.query(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD", "@{upstream}")
	if err != nil {
		return "", err
	}
	branch, upstream, ok := strings.Cut(names, "\n")
	if !ok {
		branch, upstream = "HEAD", "@{upstream}"
	}
	return fmt.Sprintf("%s is ahead of %s\n", branch, upstream), nil
}

func (g *ExecGit) query(ctx context.Context, dir types.FilesystemPath, args ...string) (string, error) {
	if info, err := os.Stat(string(dir)); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		return "", &UnavailableError{Op: "git " + args[0], Dir: dir, Err: err}
	}

	var stdout, stderr bytes.Buffer
	cmd := g.command(ctx, string(dir), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &UnavailableError{Op: "git " + args[0], Dir: dir, Output: stderr.String(), Err: err}
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

func (g *ExecGit) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	bin := g.Binary
	if bin == "" {
		bin = DefaultGitBinary
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd
}
