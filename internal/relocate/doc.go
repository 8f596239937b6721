// Package relocate moves every file tagged as an outtake into the folder's
// OUTTAKES directory using a verified copy.
//
// Each source is hashed, copied, and the copy hashed again. The source is
// deleted only when both digests are non-empty and equal; anything else is a
// mismatch and the original stays in place. Missing sources are skipped.
// After the pass the tag store is cleared and persisted, whatever the
// per-file outcomes were.
//
// A relocation is exclusive per Relocator (atomic guard) and per folder
// (advisory lock file), and it runs to completion once started.
package relocate
