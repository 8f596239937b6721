// Package preflight provides filesystem readiness checks that outtake runs
// before touching a folder.
//
// These checks run in two contexts:
//   - The session calls CheckFolder when a folder is opened and the relocator
//     calls CheckWritable on the OUTTAKES directory before moving anything.
//   - The CLI "outtake config validate" command uses RunAll to report whether
//     the configured state and log directories are usable.
package preflight
