// Package backup copies a haystack group to and from a blobstore.BlobStore.
//
// Export takes a consistent snapshot of every shard without stopping the
// writer: the index is cut to whole records, trailing records whose needle is
// not yet fully in the stack are dropped, and the stack is cut at the end of
// the last remaining needle. The snapshot therefore always passes Recover
// unchanged. Objects are written under an optional prefix:
//
//	<prefix>0000000000.index.zst
//	<prefix>0000000000.stack.zst
//	<prefix>manifest.json
//
// The manifest is written last, so a backup without one is incomplete.
//
// Restore downloads a backup into an empty directory, verifying the sizes
// recorded in the manifest.
package backup
