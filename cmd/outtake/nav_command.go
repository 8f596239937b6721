package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"outtake/internal/navigation"
)

type navView struct {
	navigation.Result
	Filename string `json:"filename,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

func newNavCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "nav <folder> <from> <to>",
		Short: "Show where a selection move lands after skipping RAW companions",
		Long: "Resolve a selection move from row <from> to row <to>. Use -1 for <from> when\n" +
			"nothing is selected yet. Rows may also be given as filenames.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(args[0], nil)
			if err != nil {
				return err
			}
			from, err := parseIndex(args[1], s.Entries())
			if err != nil {
				return err
			}
			to, err := parseIndex(args[2], s.Entries())
			if err != nil {
				return err
			}

			view := navView{Result: s.Navigate(from, to)}
			if view.Index >= 0 && view.Index < len(s.Entries()) {
				view.Filename = s.Entries()[view.Index].Filename
				if view.Changed {
					view.Preview = filepath.Join(s.Folder(), view.Filename)
				}
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			if !view.Changed {
				if view.Index == navigation.NoSelection {
					fmt.Fprintln(out, "Selection unchanged: nothing selected")
				} else {
					fmt.Fprintf(out, "Selection unchanged: %d (%s)\n", view.Index, view.Filename)
				}
				return nil
			}
			fmt.Fprintf(out, "Effective selection: %d (%s)\n", view.Index, view.Filename)
			if view.Redirected {
				fmt.Fprintln(out, "Skipped RAW companion")
			}
			fmt.Fprintf(out, "Preview: %s\n", view.Preview)
			return nil
		},
	}
}
