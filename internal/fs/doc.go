// Package fs provides the filesystem abstraction used by the haystack engine.
//
// The package defines two interfaces:
//
//   - [File]: an open file with read/write/seek/sync capabilities
//   - [FileSystem]: directory and file operations (open, stat, list, truncate)
//
// # Implementations
//
//   - [LocalFS]: production implementation backed by the os package
//   - [FaultyFS]: test wrapper that injects I/O faults
//
// # Torn writes
//
// FaultyFS models a power loss in the middle of an append: once a file crosses
// its FailAfterBytes budget, the allowed prefix of the buffer is still written
// and the call fails. The file is left exactly as a crashed writer would leave
// it, which is what the recovery path is tested against.
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".stack", fs.Fault{FailAfterBytes: 10})
//
// Operations take no context.Context. Local filesystem calls are not
// interruptible at the syscall level; remote storage lives in blobstore.
package fs
