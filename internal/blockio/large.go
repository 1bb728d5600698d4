package blockio

import (
	"bufio"
	"io"
	"os"

	"github.com/hupe1980/haystack/internal/fs"
)

// Large buffers whole blocks in user space and hints sequential access to the
// kernel on open.
type Large struct {
	// Block is the block size; DefaultLargeBlockSize when <= 0.
	Block int
}

// BlockSize implements IO.
func (l Large) BlockSize() int {
	if l.Block <= 0 {
		return DefaultLargeBlockSize
	}
	return l.Block
}

// OpenForRead implements IO.
func (l Large) OpenForRead(fsys fs.FileSystem, path string) (Reader, error) {
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	adviseSequential(f)
	return &largeReader{f: f, r: bufio.NewReaderSize(f, l.BlockSize())}, nil
}

// OpenForWrite implements IO.
func (l Large) OpenForWrite(fsys fs.FileSystem, path string) (Writer, error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return &largeWriter{f: f, w: bufio.NewWriterSize(f, l.BlockSize())}, nil
}

type largeReader struct {
	f fs.File
	r *bufio.Reader
}

func (l *largeReader) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *largeReader) Close() error               { return l.f.Close() }

func (l *largeReader) Seek(pos int64) error {
	if _, err := l.f.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	l.r.Reset(l.f)
	return nil
}

type largeWriter struct {
	f fs.File
	w *bufio.Writer
}

func (l *largeWriter) Write(p []byte) (int, error) { return l.w.Write(p) }
func (l *largeWriter) Flush() error                { return l.w.Flush() }

func (l *largeWriter) Seek(pos int64) error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	_, err := l.f.Seek(pos, io.SeekStart)
	return err
}

func (l *largeWriter) Sync() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.f.Sync()
}

func (l *largeWriter) Close() error {
	if err := l.w.Flush(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}
