package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"outtake/internal/navigation"
	"outtake/internal/relocate"
	"outtake/internal/session"
	"outtake/internal/tagstore"
)

const browseHelp = `Commands:
  j / k      next / previous image (RAW companions are skipped)
  g <row>    jump to a row
  1          toggle outtake on the selected image and its siblings
  m          move tagged outtakes into OUTTAKES
  l          list images
  h          show this help
  q          quit`

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <folder>",
		Short: "Interactively step through a folder and tag outtakes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			preview := session.PreviewFunc(func(path string) {
				fmt.Fprintf(out, "Preview: %s\n", path)
			})
			s, err := ctx.openSession(args[0], preview)
			if err != nil {
				return err
			}

			b := &browser{session: s, out: out, colorize: shouldColorize(out)}
			renderEntries(out, s)
			fmt.Fprintln(out, browseHelp)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				if quit := b.handle(cmd, strings.Fields(scanner.Text())); quit {
					return nil
				}
			}
		},
	}
}

type browser struct {
	session  *session.Session
	out      io.Writer
	colorize bool
}

func (b *browser) handle(cmd *cobra.Command, fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q", "quit", "exit":
		return true
	case "j", "n":
		b.step(1)
	case "k", "p":
		b.step(-1)
	case "g":
		if len(fields) < 2 {
			fmt.Fprintln(b.out, "usage: g <row>")
			return false
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(b.out, "invalid row %q\n", fields[1])
			return false
		}
		result, _ := b.session.Select(idx)
		b.reportUnchanged(result)
	case "1", "t":
		b.toggle()
	case "m":
		b.move(cmd)
	case "l":
		renderEntries(b.out, b.session)
	case "h", "?", "help":
		fmt.Fprintln(b.out, browseHelp)
	default:
		fmt.Fprintf(b.out, "unknown command %q (h for help)\n", fields[0])
	}
	return false
}

func (b *browser) step(delta int) {
	result, _ := b.session.Step(delta)
	b.reportUnchanged(result)
}

func (b *browser) reportUnchanged(result navigation.Result) {
	if result.Changed {
		return
	}
	if len(b.session.Entries()) == 0 {
		fmt.Fprintln(b.out, noImagesMessage)
		return
	}
	fmt.Fprintln(b.out, "Selection unchanged")
}

func (b *browser) toggle() {
	sel := b.session.Selection()
	if sel == navigation.NoSelection {
		fmt.Fprintln(b.out, "Select an image first.")
		return
	}
	filename := b.session.Entries()[sel].Filename
	change, err := b.session.ToggleOuttake(filename)
	if err != nil && !errors.Is(err, tagstore.ErrPersist) {
		fmt.Fprintf(b.out, "Error: %v\n", err)
		return
	}
	for _, row := range change.Rows {
		fmt.Fprintf(b.out, "  %d %s\n", row.Index, displayName(row.Filename, b.session.Tags(row.Filename)))
	}
	if err != nil {
		fmt.Fprintln(b.out, paint(fmt.Sprintf("Could not save tags: %v", err), statusError, b.colorize))
	}
}

func (b *browser) move(cmd *cobra.Command) {
	summary, err := b.session.MoveOuttakes(cmd.Context())
	switch {
	case errors.Is(err, relocate.ErrNothingToMove):
		fmt.Fprintln(b.out, nothingToMoveMessage)
		return
	case summary.RunID == "" && err != nil:
		fmt.Fprintln(b.out, paint(fmt.Sprintf("An error occurred: %v", err), statusError, b.colorize))
		return
	}
	renderSummary(b.out, summary, b.colorize)
	if err != nil {
		fmt.Fprintln(b.out, paint(fmt.Sprintf("Could not save tags: %v", err), statusError, b.colorize))
	}
	renderEntries(b.out, b.session)
}
