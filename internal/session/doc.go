// Package session is the single-threaded controller a presentation shell
// drives: it owns the open folder, its listing, its tag store, and the
// current selection, and turns user commands into calls on the sibling
// resolver, navigation filter, and relocator.
//
// The session decides the effective selection before telling the shell to
// preview anything, so a RAW companion is never previewed.
package session
