package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"outtake/internal/siblings"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <folder> <file>...",
		Short: "Toggle the outtake tag on each file and its siblings",
		Long: "Toggle the outtake tag on each file. Every file sharing the same base name\n" +
			"(for example IMG001.jpg and IMG001.nef) is set to the same state.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(args[0], nil)
			if err != nil {
				return err
			}

			changes := make([]siblings.Change, 0, len(args)-1)
			for _, filename := range args[1:] {
				change, err := s.ToggleOuttake(filename)
				if err != nil {
					return err
				}
				changes = append(changes, change)
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, changes)
			}
			out := cmd.OutOrStdout()
			for _, change := range changes {
				verb := "Untagged"
				if change.Added {
					verb = "Tagged"
				}
				names := make([]string, len(change.Rows))
				for i, row := range change.Rows {
					names[i] = displayName(row.Filename, s.Tags(row.Filename))
				}
				fmt.Fprintf(out, "%s %s: %s\n", verb, change.BaseName, strings.Join(names, ", "))
			}
			return nil
		},
	}
}
