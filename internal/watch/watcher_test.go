// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/lktool/lktool/internal/testutil"
)

const testDebounce = 100 * time.Millisecond

// startWatcher runs a watcher on dir and returns the channel of callback
// invocations plus a stop function that asserts a clean shutdown.
func startWatcher(t *testing.T, dir string, patterns []string) (<-chan []string, func()) {
	t.Helper()

	calls := make(chan []string, 16)
	w, err := New(Config{
		Dir:      dir,
		Patterns: patterns,
		Debounce: testDebounce,
		OnChange: func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	return calls, func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}
}

func waitCall(t *testing.T, calls <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-calls:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func expectNoCall(t *testing.T, calls <-chan []string) {
	t.Helper()
	select {
	case changed := <-calls:
		t.Fatalf("unexpected callback with %v", changed)
	case <-time.After(3 * testDebounce):
	}
}

func TestWatcherCoalescesEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "src"), 0o755)
	calls, stop := startWatcher(t, dir, nil)
	defer stop()

	for _, name := range []string{"a.rs", "b.rs", "c.rs"} {
		testutil.MustWriteFile(t, filepath.Join(dir, "src", name), "fn x() {}\n")
		time.Sleep(10 * time.Millisecond)
	}

	changed := waitCall(t, calls)
	for _, want := range []string{"src/a.rs", "src/b.rs", "src/c.rs"} {
		if !slices.Contains(changed, want) {
			t.Errorf("changed = %v, missing %s", changed, want)
		}
	}
	if !slices.IsSorted(changed) {
		t.Errorf("changed = %v, want sorted", changed)
	}
	expectNoCall(t, calls)
}

func TestWatcherFilters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "src"), 0o755)
	testutil.MustMkdirAll(t, filepath.Join(dir, "target", "release"), 0o755)
	calls, stop := startWatcher(t, dir, []string{"src/**", "Cargo.toml"})
	defer stop()

	// Neither outside the patterns nor under the ignored target tree.
	testutil.MustWriteFile(t, filepath.Join(dir, "README.md"), "notes\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "target", "release", "kernel"), "bin\n")
	expectNoCall(t, calls)

	testutil.MustWriteFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\n")
	changed := waitCall(t, calls)
	if !slices.Equal(changed, []string{"Cargo.toml"}) {
		t.Errorf("changed = %v, want [Cargo.toml]", changed)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls, stop := startWatcher(t, dir, []string{"src/**"})
	defer stop()

	testutil.MustMkdirAll(t, filepath.Join(dir, "src", "arch"), 0o755)
	time.Sleep(testDebounce / 2)
	testutil.MustWriteFile(t, filepath.Join(dir, "src", "arch", "boot.rs"), "// boot\n")

	// Directory creations match src/** too; keep reading until the file shows up.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-calls:
			if slices.Contains(changed, "src/arch/boot.rs") {
				return
			}
		case <-deadline:
			t.Fatal("change in new directory never reported")
		}
	}
}

func TestNewInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Dir: t.TempDir(), Patterns: []string{"src/[unclosed"}})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("New() error = %v, want ErrInvalidPattern", err)
	}
}

func TestNewMissingDir(t *testing.T) {
	t.Parallel()

	// An unreadable root is skipped, not fatal; a missing one has nothing to add.
	w, err := New(Config{Dir: filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("Run() after cancel error = %v", err)
	}
}
