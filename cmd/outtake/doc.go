// Package main hosts the outtake CLI entrypoint and command graph.
//
// The Cobra-based command tree is a thin presentation shell over
// internal/session: it opens a folder, forwards toggle, navigation, and move
// requests, and renders results as tables, plain summaries, or JSON. The
// interactive browse command drives the same session from a line-oriented
// prompt and prints the preview path whenever the effective selection
// changes.
//
// Keep this package lean: behaviour belongs in the internal packages, and
// commands here only resolve configuration, build the session, and format
// output.
package main
