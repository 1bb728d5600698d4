package blockio

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/haystack/internal/fs"
)

const (
	// DefaultDirectBlockSize is the block size of the Direct variant.
	DefaultDirectBlockSize = 4 << 10
	// DefaultLargeBlockSize is the block size of the Large variant.
	DefaultLargeBlockSize = 1 << 20
)

// ErrShortSource is returned by Copy when the source ends before n bytes.
var ErrShortSource = errors.New("blockio: source ended early")

// IO opens block handles over files.
type IO interface {
	// BlockSize is the transfer unit callers should use for Read and Write.
	BlockSize() int
	// OpenForRead opens path for sequential reads starting at offset 0.
	OpenForRead(fsys fs.FileSystem, path string) (Reader, error)
	// OpenForWrite opens an existing path for writing starting at offset 0.
	OpenForWrite(fsys fs.FileSystem, path string) (Writer, error)
}

// Reader reads blocks from the current position.
type Reader interface {
	io.Reader
	io.Closer
	// Seek moves the read position to pos bytes from the start of the file.
	Seek(pos int64) error
}

// Writer writes blocks at the current position.
type Writer interface {
	io.Writer
	io.Closer
	// Seek moves the write position to pos bytes from the start of the file.
	Seek(pos int64) error
	// Flush hands buffered blocks to the operating system.
	Flush() error
	// Sync flushes and then commits the file to stable storage.
	Sync() error
}

// Copy writes exactly n bytes from src to dst in blocks of blockSize.
// It returns the bytes written; a source with fewer than n bytes yields
// ErrShortSource wrapping io.ErrUnexpectedEOF.
func Copy(dst Writer, src io.Reader, n int64, blockSize int) (int64, error) {
	if blockSize <= 0 {
		blockSize = DefaultDirectBlockSize
	}
	buf := make([]byte, min(int64(blockSize), max(n, 1)))

	var written int64
	for written < n {
		chunk := buf[:min(int64(len(buf)), n-written)]
		got, err := io.ReadFull(src, chunk)
		if got > 0 {
			w, werr := dst.Write(chunk[:got])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w after %d of %d bytes: %w", ErrShortSource, written, n, io.ErrUnexpectedEOF)
			}
			return written, err
		}
	}
	return written, nil
}

// ReadFull fills p from r, block by block. A file shorter than p yields
// io.ErrUnexpectedEOF (or io.EOF when nothing could be read).
func ReadFull(r Reader, p []byte, blockSize int) (int, error) {
	if blockSize <= 0 {
		blockSize = DefaultDirectBlockSize
	}
	var n int
	for n < len(p) {
		end := min(n+blockSize, len(p))
		got, err := io.ReadFull(r, p[n:end])
		n += got
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				return n, io.ErrUnexpectedEOF
			}
			return n, err
		}
	}
	return n, nil
}
