// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the lktool command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lktool",
		Short: "Manage local module overrides of a kernel project",
		Long: TitleStyle.Render("lktool") + SubtitleStyle.Render(" - module override manager for kernel projects") + `

lktool swaps registry modules of a Cargo-based kernel project for local
working copies. 'get' clones a module next to the project and points a
[patch] entry of Cargo.toml at it; 'put' verifies the working copy is clean
and pushed, then removes both again.

Modules are looked up in the project's Repo.toml, [shared] first and [root]
second.

` + SubtitleStyle.Render("Examples:") + `
  lktool new myos --root hello   Create a project on the 'hello' root module
  lktool get axhal               Work on axhal locally
  lktool status                  Show current overrides
  lktool put axhal               Drop the local copy after pushing
  lktool build --watch           Rebuild on every change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/lktool/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&app.flags.projectDir, "project-dir", "C", ".", "project directory")

	rootCmd.AddCommand(
		newGetCommand(app),
		newPutCommand(app),
		newStatusCommand(app),
		newNewCommand(app),
		newListCommand(app),
		newBuildCommand(app),
		newRunCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the classified status.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.flags.verbose)
		}),
	); err != nil {
		os.Exit(exitCodeOf(err))
	}
}

// renderError prints err for a terminal. Classified errors carry their own
// message; flag and argument errors from cobra get a generic line.
func renderError(w io.Writer, err error, verbose bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, verbose)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render(fmt.Sprintf("Error [%s]:", KindFailure)), formatErrorForDisplay(err, verbose))
}

// exitCodeOf returns the process status for an error returned by the tree.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return int(exitErr.Code)
	}
	return 1
}
