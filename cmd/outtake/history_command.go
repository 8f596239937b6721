package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"outtake/internal/journal"
	"outtake/internal/relocate"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past relocations, or the per-file outcome of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				files, err := store.Files(cmd.Context(), run.RunID)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, struct {
						Run   journal.Run           `json:"run"`
						Files []relocate.FileResult `json:"files"`
					}{run, files})
				}
				fmt.Fprintf(out, "Run %s  %s\n", run.RunID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Folder: %s\n", run.Folder)
				rows := make([][]string, len(files))
				for i, file := range files {
					rows[i] = []string{file.Filename, file.Status, shortHash(file.SourceHash), shortHash(file.DestinationHash), file.Error}
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Status", "Source", "Copy", "Error"}, rows))
				return nil
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No relocations recorded.")
				return nil
			}
			rows := make([][]string, len(runs))
			for i, run := range runs {
				rows[i] = []string{
					shortID(run.RunID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Folder,
					strconv.Itoa(run.Processed),
					strconv.Itoa(run.Verified),
					strconv.Itoa(run.Mismatched),
					strconv.Itoa(run.Skipped),
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Folder", "Processed", "Verified", "Mismatched", "Skipped"},
				rows, 3, 4, 5, 6,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortHash(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
