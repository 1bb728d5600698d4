// Package cache provides a byte-bounded LRU cache of needle contents.
//
// Needles are immutable once written, so an entry stays valid until recovery
// truncates the shard it belongs to. Callers invalidate per shard after a
// repair.
package cache
