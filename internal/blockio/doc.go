// Package blockio provides the block-oriented sequential reader and writer the
// engine uses to move blob bytes in and out of stack files.
//
// [IO] is a capability, not a concrete type: open-for-read, open-for-write,
// seek, read-block and write-block. Two variants ship with the package:
//
//   - [Direct]: small blocks issued straight to the file, no user-space buffer.
//   - [Large]: large buffered blocks with a sequential read-ahead hint, suited
//     to multi-megabyte blobs.
//
// Handles are opened and closed within a single engine call.
package blockio
