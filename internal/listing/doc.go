// Package listing enumerates the supported images in a folder and derives the
// per-file facts the rest of outtake keys on: the base name shared by sibling
// files and whether the file is a RAW companion.
package listing
