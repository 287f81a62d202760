// Package memstore implements the repository.Store interface over an
// in-memory list.
//
// The store is a plain slice behind one mutex: every operation takes the
// lock, scans linearly, and releases it. There is no persistence, no
// indexing, and no transaction support beyond the mutual exclusion the
// lock provides. That is deliberate; the store exists for prototyping,
// examples, and tests.
//
// Objects are deep-copied through JSON on every read and write, so data
// held by callers never aliases data held by the store.
package memstore
