package main

import (
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <folder>",
		Short: "List supported images with their tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(args[0], nil)
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, entryViews(s))
			}
			renderEntries(cmd.OutOrStdout(), s)
			return nil
		},
	}
}
