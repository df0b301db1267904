// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/lktool/lktool/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `lktool config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lktool configuration",
		Long: `Manage lktool configuration.

Configuration is read from the first of:
  - the file given with --config
  - Linux: ~/.config/lktool/config.cue
    macOS: ~/Library/Application Support/lktool/config.cue
    Windows: %APPDATA%\lktool\config.cue
  - lktool.cue in the project directory

LKTOOL_* environment variables override file values, for example
LKTOOL_VCS_BACKEND=go-git or LKTOOL_BUILD_COMMAND="make -j8".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			showConfig(app, s)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return failure(err, app.flags.verbose)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", SubtitleStyle.Render("•"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.flags.configPath != "" {
				fmt.Fprintln(app.stdout, app.flags.configPath)
				return nil
			}
			path, err := config.ConfigFilePath()
			if err != nil {
				return failure(err, app.flags.verbose)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, s *session) {
	cfg := s.cfg
	w := app.stdout

	source := s.cfgPath
	if source == "" {
		source = "(defaults)"
	}

	fmt.Fprintln(w, TitleStyle.Render("Configuration"))
	fmt.Fprintf(w, "  %s %s\n\n", SubtitleStyle.Render("source:"), source)

	row := func(key string, value any) {
		fmt.Fprintf(w, "  %-22s %v\n", CmdStyle.Render(key), value)
	}
	row("registry_file", cfg.RegistryFile)
	row("manifest_file", cfg.ManifestFile)
	row("vcs.backend", cfg.VCS.Backend)
	row("vcs.git_binary", cfg.VCS.GitBinary)
	row("build.command", cfg.Build.Command)
	row("build.run_command", cfg.Build.RunCommand)
	row("build.watch_patterns", strings.Join(cfg.Build.WatchPatterns, ", "))
	template := cfg.Scaffold.TemplateDir
	if template == "" {
		template = "(built-in)"
	}
	row("scaffold.template_dir", template)
	row("ui.verbose", cfg.UI.Verbose)
	row("ui.log_level", cfg.UI.LogLevel)
}
