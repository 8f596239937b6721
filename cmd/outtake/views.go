package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"outtake/internal/listing"
	"outtake/internal/relocate"
	"outtake/internal/session"
)

const noImagesMessage = "No supported image files found."

type entryView struct {
	Index    int      `json:"index"`
	Filename string   `json:"filename"`
	BaseName string   `json:"base_name"`
	IsRaw    bool     `json:"is_raw"`
	Tags     []string `json:"tags"`
}

func entryViews(s *session.Session) []entryView {
	entries := s.Entries()
	views := make([]entryView, len(entries))
	for i, entry := range entries {
		tags := s.Tags(entry.Filename)
		if tags == nil {
			tags = []string{}
		}
		views[i] = entryView{
			Index:    i,
			Filename: entry.Filename,
			BaseName: entry.BaseName,
			IsRaw:    entry.IsRaw,
			Tags:     tags,
		}
	}
	return views
}

// displayName renders a listing row the way the browser shows it: the
// filename followed by its tags in brackets.
func displayName(filename string, tags []string) string {
	if len(tags) == 0 {
		return filename
	}
	return fmt.Sprintf("%s [%s]", filename, strings.Join(tags, ", "))
}

func renderEntries(out io.Writer, s *session.Session) {
	entries := s.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(out, noImagesMessage)
		return
	}
	rows := make([][]string, len(entries))
	for i, entry := range entries {
		marker := ""
		if i == s.Selection() {
			marker = ">"
		}
		rows[i] = []string{
			marker,
			strconv.Itoa(i),
			entry.Filename,
			strings.Join(s.Tags(entry.Filename), ", "),
			yesNo(entry.IsRaw),
		}
	}
	fmt.Fprintln(out, renderTable([]string{"", "#", "File", "Tags", "RAW"}, rows, 1))
}

func renderSummary(out io.Writer, summary relocate.Summary, colorize bool) {
	fmt.Fprintln(out, renderCountLine("Files processed", statusInfo, summary.Processed, colorize))
	fmt.Fprintf(out, "Integrity check (%s):\n", strings.ToUpper(summary.HashAlgorithm))
	fmt.Fprintln(out, renderCountLine("Verified & Deleted original", statusOK, summary.Verified, colorize))
	fmt.Fprintln(out, renderCountLine("Mismatches (Original kept)", statusWarn, summary.Mismatched, colorize))
	if summary.Skipped > 0 {
		fmt.Fprintln(out, renderCountLine("Skipped (missing)", statusInfo, summary.Skipped, colorize))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "All local tags have been cleared.")
	if warning := summary.Warning(); warning != "" {
		fmt.Fprintln(out, paint("Warning: "+warning, statusWarn, colorize))
	}
}

func parseIndex(raw string, entries []listing.Entry) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if found := listing.Index(entries, strings.TrimSpace(raw)); found >= 0 {
			return found, nil
		}
		return 0, fmt.Errorf("%q is neither a row number nor a listed file", raw)
	}
	return idx, nil
}
