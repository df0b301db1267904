// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lktool/lktool/pkg/types"
)

const sampleRegistry = `
# kernel component registry
[shared]
alpha = "https://example/repo-x"
beta = "https://example/repo-x"
both = "https://example/shared-both"

[root]
hello = "https://example/hello-top.git"
both = "https://example/root-both"

[unrelated]
ignored = 1
`

func mustParse(t *testing.T, doc string) *Registry {
	t.Helper()
	reg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return reg
}

func TestResolve(t *testing.T) {
	t.Parallel()

	reg := mustParse(t, sampleRegistry)

	tests := []struct {
		name      string
		input     string
		wantLoc   SourceLocation
		wantClass Class
	}{
		{"shared module", "alpha", "https://example/repo-x", ClassShared},
		{"root module", "hello", "https://example/hello-top.git", ClassRoot},
		{"shared wins over root", "both", "https://example/shared-both", ClassShared},
		{"trailing slash stripped", "beta/", "https://example/repo-x", ClassShared},
		{"trailing backslash stripped", `hello\`, "https://example/hello-top.git", ClassRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := reg.Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.input, err)
			}
			if res.Location != tt.wantLoc {
				t.Errorf("Location = %q, want %q", res.Location, tt.wantLoc)
			}
			if res.Class != tt.wantClass {
				t.Errorf("Class = %q, want %q", res.Class, tt.wantClass)
			}
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	reg := mustParse(t, sampleRegistry)
	_, err := reg.Resolve("ghost")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("Resolve(ghost) error = %v, want ErrModuleNotFound", err)
	}
	var nf *ModuleNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error should be *ModuleNotFoundError, got %T", err)
	}
	if len(nf.Searched) != 2 || nf.Searched[0] != ClassShared || nf.Searched[1] != ClassRoot {
		t.Errorf("Searched = %v, want [shared root]", nf.Searched)
	}
}

func TestResolve_InvalidName(t *testing.T) {
	t.Parallel()

	reg := mustParse(t, sampleRegistry)
	for _, name := range []string{"", "/", "two words"} {
		_, err := reg.Resolve(name)
		if !errors.Is(err, ErrInvalidModuleName) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidModuleName", name, err)
		}
		if !errors.Is(err, ErrModuleNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrModuleNotFound", name, err)
		}
	}
}

func TestLookup_SingleClass(t *testing.T) {
	t.Parallel()

	reg := mustParse(t, sampleRegistry)

	res, err := reg.Lookup(ClassRoot, "both")
	if err != nil {
		t.Fatalf("Lookup(root, both) error = %v", err)
	}
	if res.Location != "https://example/root-both" {
		t.Errorf("Location = %q, want root-both", res.Location)
	}
	if _, err := reg.Lookup(ClassRoot, "alpha"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Lookup(root, alpha) error = %v, want ErrModuleNotFound", err)
	}
	if _, err := reg.Lookup("top", "alpha"); !errors.Is(err, ErrInvalidClass) {
		t.Errorf("Lookup(top, alpha) error = %v, want ErrInvalidClass", err)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"malformed toml", "[shared\nalpha = "},
		{"non-string location", "[shared]\nalpha = 3\n"},
		{"blank location", "[shared]\nalpha = \"  \"\n"},
		{"location without segment", "[root]\nhello = \"https://\"\n"},
		{"name with space", "[shared]\n\"bad name\" = \"https://example/x\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrRegistryParse) {
				t.Fatalf("Parse() error = %v, want ErrRegistryParse", err)
			}
		})
	}
}

func TestEntries(t *testing.T) {
	t.Parallel()

	reg := mustParse(t, sampleRegistry)

	all, err := reg.Entries("", "")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	var got []string
	for _, e := range all {
		got = append(got, string(e.Class)+"/"+string(e.Name))
	}
	want := []string{"shared/alpha", "shared/beta", "shared/both", "root/both", "root/hello"}
	if len(got) != len(want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	filtered, err := reg.Entries(ClassShared, "b*")
	if err != nil {
		t.Fatalf("Entries(shared, b*) error = %v", err)
	}
	if len(filtered) != 2 || filtered[0].Name != "beta" || filtered[1].Name != "both" {
		t.Errorf("Entries(shared, b*) = %+v, want beta and both", filtered)
	}

	if _, err := reg.Entries("", "[unclosed"); err == nil {
		t.Error("Entries() with a bad pattern should fail")
	}
}

func TestSourceLocation_Container(t *testing.T) {
	t.Parallel()

	tests := []struct {
		loc  SourceLocation
		want ContainerName
	}{
		{"https://example/repo-x", "repo-x"},
		{"https://example/repo-x/", "repo-x"},
		{"https://github.com/org/kernel-mods.git", "kernel-mods"},
		{"git@github.com:kernel-mods.git", "kernel-mods"},
		{"../local/path/drivers", "drivers"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := tt.loc.Container(); got != tt.want {
			t.Errorf("SourceLocation(%q).Container() = %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestResolution_BindingPath(t *testing.T) {
	t.Parallel()

	shared := Resolution{Name: "alpha", Location: "https://example/repo-x"}
	if got := shared.BindingPath(); got != "repo-x/alpha" {
		t.Errorf("BindingPath() = %q, want %q", got, "repo-x/alpha")
	}
	single := Resolution{Name: "hello", Location: "https://example/hello.git"}
	if got := single.BindingPath(); got != "hello" {
		t.Errorf("BindingPath() = %q, want %q", got, "hello")
	}
}

func TestLoadAndResolveRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(sampleRegistry), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	res, err := ResolveRoot(types.FilesystemPath(dir), "hello")
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	if res.Class != ClassRoot || res.Container() != "hello-top" {
		t.Errorf("ResolveRoot() = %+v, want root class in container hello-top", res)
	}

	// Shared modules are not candidates for a project root.
	if _, err := ResolveRoot(types.FilesystemPath(dir), "alpha"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("ResolveRoot(alpha) error = %v, want ErrModuleNotFound", err)
	}

	_, err = Load(types.FilesystemPath(filepath.Join(dir, "missing.toml")))
	if !errors.Is(err, ErrRegistryParse) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrRegistryParse wrapping ErrNotExist", err)
	}
}

func TestSourceLocation_Against(t *testing.T) {
	t.Parallel()

	base := types.FilesystemPath(t.TempDir())
	abs := filepath.Join(string(base), "mirror", "repo-x")

	tests := []struct {
		loc  SourceLocation
		want SourceLocation
	}{
		{loc: "https://example.org/kernel/repo-x", want: "https://example.org/kernel/repo-x"},
		{loc: "git@example.org:kernel/repo-x.git", want: "git@example.org:kernel/repo-x.git"},
		{loc: "file:///srv/git/repo-x", want: "file:///srv/git/repo-x"},
		{loc: SourceLocation(abs), want: SourceLocation(abs)},
		{loc: "../up/repo-x", want: SourceLocation(filepath.Join(filepath.Dir(string(base)), "up", "repo-x"))},
		{loc: "vendor/repo-x", want: SourceLocation(filepath.Join(string(base), "vendor", "repo-x"))},
	}

	for _, tt := range tests {
		t.Run(string(tt.loc), func(t *testing.T) {
			t.Parallel()
			if got := tt.loc.Against(base); got != tt.want {
				t.Errorf("Against(%q) = %q, want %q", base, got, tt.want)
			}
		})
	}
}
