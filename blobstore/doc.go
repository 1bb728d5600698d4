// Package blobstore abstracts the object storage that haystack backups are
// written to and restored from.
//
// A BlobStore holds immutable, named blobs. Names are slash separated and
// relative to the store's root.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: a local directory, blobs become visible atomically on Close
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads and range reads
//
// # Custom Implementations
//
// Implement the BlobStore interface to support other backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Stream a new blob
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Implementations must be safe for concurrent use and must return an error
// matching ErrNotFound from Open when a blob does not exist.
package blobstore
