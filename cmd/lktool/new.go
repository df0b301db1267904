// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/lktool/lktool/internal/scaffold"
	"github.com/lktool/lktool/pkg/types"

	"github.com/spf13/cobra"
)

func newNewCommand(app *App) *cobra.Command {
	var (
		root        string
		parentDir   string
		templateDir string
	)

	newCmd := &cobra.Command{
		Use:   "new <name> --root <root-module>",
		Short: "Create a kernel project from the template",
		Long: `Create a new kernel project in a directory named <name>.

The template carries a Repo.toml registry. The root module given with --root
is looked up in its [root] table and recorded as the 'top' dependency of the
new Cargo.toml. The directory must not exist yet; nothing is left behind when
creation fails.`,
		Example: `  lktool new myos --root hello
  lktool new myos --root shell --path ~/src --template ./my-template`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			opts := scaffold.Options{
				Name:      args[0],
				Root:      root,
				ParentDir: s.projectDir,
				FS:        app.FS,
				Logger:    s.logger,
			}
			if parentDir != "" {
				opts.ParentDir = s.projectPath(parentDir)
			}
			if dir := templateDir; dir != "" {
				opts.TemplateDir = s.projectPath(dir)
			} else if s.cfg.Scaffold.TemplateDir != "" {
				opts.TemplateDir = types.FilesystemPath(s.cfg.Scaffold.TemplateDir)
			}

			res, err := scaffold.Create(cmd.Context(), opts)
			if err != nil {
				return failure(err, s.verbose)
			}

			fmt.Fprintf(app.stdout, "%s Created %s on root module %s (%s)\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(res.Dir.String()),
				CmdStyle.Render(res.Root.Name.String()), res.Root.Location)
			return nil
		},
	}

	newCmd.Flags().StringVar(&root, "root", "", "root module from the template registry (required)")
	newCmd.Flags().StringVar(&parentDir, "path", "", "directory to create the project in (default is the project directory)")
	newCmd.Flags().StringVar(&templateDir, "template", "", "template directory to copy instead of the built-in one")
	_ = newCmd.MarkFlagRequired("root")

	return newCmd
}
