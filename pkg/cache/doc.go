// Package cache reuses earlier responses keyed by input file name.
//
// The key is the file name alone: editing a prompt does not invalidate an
// entry. An entry is written after the first successful call, replaced only
// by a forced successful call, and lives until Invalidate removes it.
//
// ResponseCache.Resolve holds a per-file-name lock across lookup, call and
// write, so concurrent workers never issue two calls for the same file.
//
// Entries are persisted through a Store. BadgerStore keeps them in a
// BadgerDB directory; MemoryStore keeps them for the lifetime of the process.
package cache
