// Package engine implements the haystack storage engine (the Stacker).
//
// A haystack group is a directory of shard pairs. Each shard has a stack file
// holding concatenated blobs and an index file of fixed 24-byte records, one
// per blob, in write order:
//
//	0000000000.stack   0000000000.index
//	0000000001.stack   0000000001.index
//
// # Write path
//
// Write lists the shards, picks the first one with room (or the next unused
// number), appends the index record, flushes it, and only then appends the blob
// bytes. The index record always lands before the data it describes.
//
// # Recovery
//
// Because of that ordering a crash leaves one of two shapes behind: a partial
// trailing index record, or a complete trailing record whose blob bytes are
// missing or incomplete. Recover detects both per shard and truncates back to
// the last consistent state. It must run before new writes touch a shard that
// may have been torn.
//
// # State
//
// The Stacker keeps no file sizes, handles or indexes between calls. Every
// operation derives what it needs from directory metadata, so a process restart
// or an external inspection never leaves stale state behind. The optional read
// cache only holds immutable needle bytes and is invalidated by Recover.
//
// The engine has no locking: one writer per directory.
package engine
