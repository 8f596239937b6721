// Package tagstore keeps the per-folder mapping from filename to its ordered
// tag set and persists it as the `.image_tags.json` sidecar.
//
// A tracked filename always maps to a slice, possibly empty; empty means the
// file was touched but carries no tags. Filename insertion order is preserved
// in memory and on disk because relocation visits files in that order.
//
// The store performs no I/O on mutation. Callers Save once per batch.
// Loading is lenient: a missing sidecar yields an empty store, unreadable or
// malformed data yields an empty store plus a warning, and individual entries
// that are not string arrays are dropped.
package tagstore
