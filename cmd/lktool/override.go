// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/lktool/lktool/internal/override"

	"github.com/spf13/cobra"
)

const lockingNote = `
lktool takes no lock on the project. Two get/put runs against the same
project at the same time can interleave their Cargo.toml rewrites; run them
one after another.`

func newGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <module>",
		Short: "Check out a module locally and patch the manifest to use it",
		Long: `Check out a registry module next to the project and bind it.

The module's repository is cloned into the project directory (once per
repository, even when several modules live in it) and a [patch] entry in
Cargo.toml points the module at the local copy. Running get on a module that
is already bound changes nothing. A checkout left behind by an interrupted
get is re-used.
` + lockingNote,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			ctl, err := app.controller(s)
			if err != nil {
				return failure(err, s.verbose)
			}
			res, err := ctl.Get(cmd.Context(), args[0])
			if err != nil {
				return failure(err, s.verbose)
			}
			printResult(app.stdout, res)
			return nil
		},
	}
}

func newPutCommand(app *App) *cobra.Command {
	var opts override.PutOptions

	putCmd := &cobra.Command{
		Use:   "put <module>",
		Short: "Remove a local module checkout after checking it is clean and pushed",
		Long: `Unbind a module and delete its local checkout.

The checkout must have no uncommitted changes and no commits that are not on
its upstream branch; otherwise nothing is touched and the status or diffstat
is printed. The manifest entry is removed before the directory.

With --prune, a manifest entry whose checkout is gone is dropped, and a
checkout without a manifest entry is deleted (after the same checks).
` + lockingNote,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			ctl, err := app.controller(s)
			if err != nil {
				return failure(err, s.verbose)
			}
			res, err := ctl.Put(cmd.Context(), args[0], opts)
			if err != nil {
				return failure(err, s.verbose)
			}
			printResult(app.stdout, res)
			return nil
		},
	}

	putCmd.Flags().BoolVar(&opts.Prune, "prune", false, "clean up a half-removed override instead of failing")
	return putCmd
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the module overrides in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			ctl, err := app.controller(s)
			if err != nil {
				return failure(err, s.verbose)
			}
			locs, err := ctl.Status(cmd.Context())
			if err != nil {
				return failure(err, s.verbose)
			}
			printStatus(app.stdout, locs)
			return nil
		},
	}
}

func printResult(w io.Writer, res override.Result) {
	name := CmdStyle.Render(res.Resolution.Name.String())
	switch res.Outcome {
	case override.OutcomeBound:
		fmt.Fprintf(w, "%s %s bound to %s\n", SuccessStyle.Render("✓"), name, res.BindingPath)
	case override.OutcomeResumed:
		fmt.Fprintf(w, "%s %s bound to %s (existing checkout)\n", SuccessStyle.Render("✓"), name, res.BindingPath)
	case override.OutcomeAlreadyBound:
		fmt.Fprintf(w, "%s %s is already bound to %s\n", SubtitleStyle.Render("•"), name, res.BindingPath)
	case override.OutcomeUnbound:
		fmt.Fprintf(w, "%s %s unbound, removed %s\n", SuccessStyle.Render("✓"), name, res.Container)
	case override.OutcomeAlreadyUnbound:
		fmt.Fprintf(w, "%s %s is not bound\n", SubtitleStyle.Render("•"), name)
	case override.OutcomePruned:
		fmt.Fprintf(w, "%s %s pruned\n", WarningStyle.Render("!"), name)
	}
}

func printStatus(w io.Writer, locs []override.LocationStatus) {
	if len(locs) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No module overrides."))
		return
	}
	for _, loc := range locs {
		marker := SuccessStyle.Render("✓")
		note := ""
		if !loc.ContainerPresent {
			marker = WarningStyle.Render("!")
			note = WarningStyle.Render(" (checkout missing, see 'lktool put --prune')")
		}
		fmt.Fprintf(w, "%s %s%s\n", marker, loc.Location, note)
		for _, m := range loc.Modules {
			fmt.Fprintf(w, "    %s -> %s\n", CmdStyle.Render(m.Name.String()), m.Path)
		}
	}
}
