// Package haystack provides an embedded, log-structured blob store for Go.
//
// Many small immutable blobs ("needles") are packed into a few large
// append-only stack files. Each stack file has a companion index file of
// fixed 24-byte records that map a needle number to the byte range holding
// the needle inside the stack. A stack/index pair is called a shard.
//
// # Quick Start
//
//	store, err := haystack.Open("./data",
//	    haystack.WithCreateDir(),
//	    haystack.WithMaxStackSize(1<<30),
//	    haystack.WithRecoverOnOpen(),
//	)
//	if err != nil {
//	    return err
//	}
//
//	loc, _ := store.Write(photo)
//	data, _ := store.Read(loc.Shard, loc.Needle)
//
// The (shard, needle) pair returned by Write is the only handle to a stored
// blob; the store keeps no key mapping of its own.
//
// # Durability Model
//
// Every write appends the index record first and the blob second, each
// followed by an fsync (DurabilitySync, the default). A crash between or
// during the two appends leaves a torn shard that Recover repairs by
// dropping the incomplete needle. Recover should run once after every
// unclean shutdown, before the next write:
//
//	report, err := store.Recover()
//
// # Concurrency
//
// A Store supports one writer. Concurrent readers of needles whose write has
// returned are safe. Nothing guards against two processes writing the same
// directory.
//
// # Key Features
//
//   - First-fit shard selection bounded by a configurable stack size
//   - Streaming writes and reads (WriteFrom, ReadTo)
//   - Optional LRU read cache
//   - Pluggable metrics (see metrics/prometheus) and structured logging
//   - Backup to local directories, S3 or MinIO (see package backup)
package haystack
