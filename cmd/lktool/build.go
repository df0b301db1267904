// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lktool/lktool/internal/buildrun"
	"github.com/lktool/lktool/internal/watch"

	"github.com/spf13/cobra"
)

func newBuildCommand(app *App) *cobra.Command {
	var watchMode bool

	buildCmd := &cobra.Command{
		Use:   "build [-- args...]",
		Short: "Build the project with the configured build tool",
		Long: `Run build.command (default 'make') in the project directory.

Extra arguments are appended to the command line. The command's exit status
becomes lktool's exit status.

With --watch, the build re-runs whenever a file matching build.watch_patterns
changes. Builds never overlap; a failing build is reported and watching
continues until interrupted.`,
		Example: `  lktool build
  lktool build -- ARCH=riscv64 LOG=debug
  lktool build --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			line := commandLine(s.cfg.Build.Command, args)
			if !watchMode {
				return failure(runTool(cmd.Context(), app, s, line), s.verbose)
			}
			return failure(watchBuild(cmd.Context(), app, s, line), s.verbose)
		},
	}

	buildCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "rebuild when source files change")
	return buildCmd
}

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Build and run the project with the configured build tool",
		Long: `Run build.run_command (default 'make run') in the project directory.

Extra arguments are appended to the command line. The command's exit status
becomes lktool's exit status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return failure(runTool(cmd.Context(), app, s, commandLine(s.cfg.Build.RunCommand, args)), s.verbose)
		},
	}
}

// commandLine appends args to the configured line, shell-quoted.
func commandLine(base string, args []string) string {
	if len(args) == 0 {
		return base
	}
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, base)
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]#~{}!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func runTool(ctx context.Context, app *App, s *session, line string) error {
	return app.runner(s).Run(ctx, buildrun.Request{
		Dir:     s.projectDir,
		Command: line,
		Stdout:  app.stdout,
		Stderr:  app.stderr,
	})
}

// watchBuild builds once, then on every batch of changes. Build failures are
// printed and do not stop the watcher.
func watchBuild(ctx context.Context, app *App, s *session, line string) error {
	build := func(ctx context.Context) {
		if err := runTool(ctx, app, s, line); err != nil {
			if ctx.Err() != nil {
				return
			}
			renderError(app.stderr, failure(err, s.verbose), s.verbose)
			return
		}
		fmt.Fprintf(app.stdout, "%s build succeeded\n", SuccessStyle.Render("✓"))
	}

	w, err := watch.New(watch.Config{
		Dir:      s.projectDir.String(),
		Patterns: s.cfg.Build.WatchPatterns,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s %s changed, rebuilding\n", SubtitleStyle.Render("•"), strings.Join(changed, ", "))
			build(ctx)
			return nil
		},
	})
	if err != nil {
		return err
	}

	build(ctx)
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Watching for changes, press Ctrl-C to stop."))

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
