package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"outtake/internal/relocate"
)

const nothingToMoveMessage = "No images are currently tagged as outtakes."

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <folder>",
		Short: "Move tagged outtakes into the folder's OUTTAKES directory",
		Long: "Copy every tagged file into OUTTAKES, verify the copy by hash, and delete the\n" +
			"original only when the digests match. All tags are cleared afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(args[0], nil)
			if err != nil {
				return err
			}
			summary, err := s.MoveOuttakes(cmd.Context())
			if errors.Is(err, relocate.ErrNothingToMove) {
				if ctx.jsonMode() {
					return writeJSON(cmd, relocate.Summary{Folder: s.Folder()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), nothingToMoveMessage)
				return nil
			}
			if summary.RunID == "" {
				return err
			}

			if ctx.jsonMode() {
				if jsonErr := writeJSON(cmd, summary); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			out := cmd.OutOrStdout()
			renderSummary(out, summary, shouldColorize(out))
			return err
		},
	}
}
