// Package journal records relocation runs in a SQLite database under the
// state directory so `outtake history` can show what was moved, what failed
// verification, and which digests were compared.
//
// The journal is advisory: the relocator logs and ignores write failures.
// Schema changes bump schemaVersion; an older database must be deleted.
package journal
