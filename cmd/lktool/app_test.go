// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lktool/lktool/internal/config"
	"github.com/lktool/lktool/internal/testutil"
	"github.com/lktool/lktool/internal/vcs"
	"github.com/lktool/lktool/pkg/manifest"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

type (
	staticConfig struct {
		cfg *config.Config
		err error
	}

	// stubVCS clones by creating the destination directory.
	stubVCS struct {
		status map[string]string
		clones []string
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.cfg, "", nil
}

func (v *stubVCS) Clone(_ context.Context, location registry.SourceLocation, dest types.FilesystemPath) error {
	v.clones = append(v.clones, string(location))
	return os.MkdirAll(string(dest), 0o755)
}

func (v *stubVCS) Status(_ context.Context, dir types.FilesystemPath) (string, error) {
	return v.status[filepath.Base(string(dir))], nil
}

func (v *stubVCS) UnpushedDiffStat(context.Context, types.FilesystemPath) (string, error) {
	return "", nil
}

// runCLI executes the command tree in dir and returns stdout, stderr and the
// error returned by the tree.
func runCLI(t *testing.T, deps Dependencies, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	deps.Stdout = &out
	deps.Stderr = &errOut
	deps.Stdin = strings.NewReader("")
	if deps.Config == nil {
		deps.Config = staticConfig{cfg: config.DefaultConfig()}
	}

	app, err := NewApp(deps)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	root := NewRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newTestProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "Repo.toml"), `
[shared]
axhal = "https://example.org/arceos-modules"
axlog = "https://example.org/arceos-modules"

[root]
hello = "https://example.org/hello"
`)
	testutil.MustWriteFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "proj"
version = "0.1.0"
`)
	return dir
}

func TestCLI_GetStatusPut(t *testing.T) {
	t.Parallel()

	dir := newTestProject(t)
	v := &stubVCS{status: map[string]string{}}
	deps := Dependencies{NewVCS: func(vcs.Backend, vcs.Options) (vcs.VersionControl, error) { return v, nil }}

	stdout, _, err := runCLI(t, deps, "-C", dir, "get", "axhal")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(stdout, "axhal bound to arceos-modules/axhal") {
		t.Errorf("get stdout = %q", stdout)
	}
	if len(v.clones) != 1 {
		t.Errorf("clones = %v, want one", v.clones)
	}

	m, err := manifest.Load(types.FilesystemPath(filepath.Join(dir, "Cargo.toml")))
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasOverride("https://example.org/arceos-modules") {
		t.Error("manifest has no override after get")
	}

	stdout, _, err = runCLI(t, deps, "-C", dir, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "axhal -> arceos-modules/axhal") {
		t.Errorf("status stdout = %q", stdout)
	}

	v.status["arceos-modules"] = " M axhal/src/lib.rs"
	_, _, err = runCLI(t, deps, "-C", dir, "put", "axhal")
	if got := exitCodeOf(err); got != 12 {
		t.Fatalf("dirty put exit = %d (%v), want 12", got, err)
	}
	if !strings.Contains(err.Error(), "M axhal/src/lib.rs") {
		t.Errorf("dirty put error %q does not carry the status", err)
	}

	delete(v.status, "arceos-modules")
	stdout, _, err = runCLI(t, deps, "-C", dir, "put", "axhal")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.Contains(stdout, "axhal unbound") {
		t.Errorf("put stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "arceos-modules")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("container still present: %v", err)
	}
}

func TestCLI_GetUnknownModule(t *testing.T) {
	t.Parallel()

	dir := newTestProject(t)
	_, _, err := runCLI(t, Dependencies{NewVCS: func(vcs.Backend, vcs.Options) (vcs.VersionControl, error) {
		return &stubVCS{}, nil
	}}, "-C", dir, "get", "nope")
	if got := exitCodeOf(err); got != 10 {
		t.Fatalf("exit = %d (%v), want 10", got, err)
	}
	if !strings.HasPrefix(err.Error(), "Error [ModuleNotFound]: ") {
		t.Errorf("error = %q", err)
	}
}

func TestCLI_InvalidBackend(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.VCS.Backend = "svn"
	_, _, err := runCLI(t, Dependencies{Config: staticConfig{cfg: cfg}}, "-C", newTestProject(t), "get", "axhal")
	if !errors.Is(err, vcs.ErrInvalidBackend) {
		t.Fatalf("error = %v, want ErrInvalidBackend", err)
	}
}

func TestCLI_ConfigError(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, Dependencies{
		Config: staticConfig{err: &config.InvalidConfigError{FieldErrors: []error{errors.New("registry_file must not be empty")}}},
	}, "list")
	if !strings.HasPrefix(err.Error(), "Error [ConfigLoadFailed]: ") {
		t.Fatalf("error = %v", err)
	}
}

func TestCLI_ListJSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, Dependencies{}, "-C", newTestProject(t), "list", "--output", "json", "--class", "shared")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rows []listEntry
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, stdout)
	}
	if len(rows) != 2 || rows[0].Name != "axhal" || rows[1].Name != "axlog" || rows[0].Class != "shared" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCLI_New(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	stdout, _, err := runCLI(t, Dependencies{}, "-C", parent, "new", "myos", "--root", "hello")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.Contains(stdout, "Created") {
		t.Errorf("stdout = %q", stdout)
	}

	m, err := manifest.Load(types.FilesystemPath(filepath.Join(parent, "myos", "Cargo.toml")))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Dependency("top"); !ok {
		t.Error("new project has no top dependency")
	}

	_, _, err = runCLI(t, Dependencies{}, "-C", parent, "new", "myos", "--root", "hello")
	if !strings.HasPrefix(err.Error(), "Error [ProjectExists]: ") {
		t.Errorf("second new error = %v", err)
	}
}

func TestCLI_BuildPropagatesExitCode(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Build.Command = "echo compiling; exit 4"
	stdout, _, err := runCLI(t, Dependencies{Config: staticConfig{cfg: cfg}}, "-C", t.TempDir(), "build")
	if got := exitCodeOf(err); got != 4 {
		t.Fatalf("exit = %d (%v), want 4", got, err)
	}
	if !strings.Contains(stdout, "compiling") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base string
		args []string
		want string
	}{
		{"make", nil, "make"},
		{"make", []string{"ARCH=riscv64", "LOG=debug"}, "make ARCH=riscv64 LOG=debug"},
		{"make run", []string{"A=b c"}, "make run 'A=b c'"},
		{"make", []string{"it's"}, `make 'it'\''s'`},
		{"make", []string{""}, "make ''"},
	}
	for _, tt := range tests {
		if got := commandLine(tt.base, tt.args); got != tt.want {
			t.Errorf("commandLine(%q, %q) = %q, want %q", tt.base, tt.args, got, tt.want)
		}
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: mutates package-level Version/Commit/BuildDate vars.
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-06-15T10:00:00Z"
	if got, want := getVersionString(), "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version = "dev"
	if got, want := getVersionString(), "dev (built from source)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}
