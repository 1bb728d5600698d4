package blockio

import (
	"io"
	"os"

	"github.com/hupe1980/haystack/internal/fs"
)

// Direct issues every block straight to the file. Nothing is buffered in user
// space, so Flush is a no-op and a torn write leaves at most one partial block.
type Direct struct {
	// Block is the block size; DefaultDirectBlockSize when <= 0.
	Block int
}

// BlockSize implements IO.
func (d Direct) BlockSize() int {
	if d.Block <= 0 {
		return DefaultDirectBlockSize
	}
	return d.Block
}

// OpenForRead implements IO.
func (d Direct) OpenForRead(fsys fs.FileSystem, path string) (Reader, error) {
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &directFile{f: f}, nil
}

// OpenForWrite implements IO.
func (d Direct) OpenForWrite(fsys fs.FileSystem, path string) (Writer, error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return &directFile{f: f}, nil
}

type directFile struct {
	f fs.File
}

func (d *directFile) Read(p []byte) (int, error)  { return d.f.Read(p) }
func (d *directFile) Write(p []byte) (int, error) { return d.f.Write(p) }
func (d *directFile) Flush() error                { return nil }
func (d *directFile) Sync() error                 { return d.f.Sync() }
func (d *directFile) Close() error                { return d.f.Close() }

func (d *directFile) Seek(pos int64) error {
	_, err := d.f.Seek(pos, io.SeekStart)
	return err
}
