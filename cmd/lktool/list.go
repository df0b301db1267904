// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lktool/lktool/pkg/registry"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type listEntry struct {
	Class    string `json:"class" yaml:"class"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
}

func newListCommand(app *App) *cobra.Command {
	var (
		class  string
		match  string
		output string
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the modules in the project registry",
		Long: `List the modules of the project's Repo.toml, [shared] first.

The registry is only read. --match filters module names with a glob such as
'ax*' or 'arceos_*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			reg, err := registry.Load(s.projectPath(s.cfg.RegistryFile))
			if err != nil {
				return failure(err, s.verbose)
			}
			entries, err := reg.Entries(registry.Class(class), match)
			if err != nil {
				return failure(err, s.verbose)
			}
			if err := writeEntries(app.stdout, entries, output); err != nil {
				return failure(err, s.verbose)
			}
			return nil
		},
	}

	listCmd.Flags().StringVar(&class, "class", "", "only list one class (shared or root)")
	listCmd.Flags().StringVar(&match, "match", "", "glob filter on module names")
	listCmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, json, yaml)")

	return listCmd
}

func writeEntries(w io.Writer, entries []registry.Entry, format string) error {
	rows := make([]listEntry, len(entries))
	for i, e := range entries {
		rows[i] = listEntry{Class: string(e.Class), Name: e.Name.String(), Location: e.Location.String()}
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		if len(rows) == 0 {
			fmt.Fprintln(w, SubtitleStyle.Render("No modules."))
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(SubtitleStyle).
			Headers("CLASS", "MODULE", "LOCATION").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			})
		for _, r := range rows {
			t.Row(r.Class, r.Name, r.Location)
		}
		fmt.Fprintln(w, t.Render())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (valid: %s, %s, %s)", format, outputTable, outputJSON, outputYAML)
	}
}
