// Package needle encodes and decodes the fixed-size index record that locates
// one blob (a needle) inside its stack file.
//
// Record layout, little-endian, RecordSize bytes:
//
//	[0:4]   shard number  int32
//	[4:8]   needle number int32
//	[8:16]  stack offset  int64
//	[16:24] needle size   int64
package needle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// RecordSize is the on-disk size of one index record.
const RecordSize = 24

var (
	// ErrShortRecord is returned when fewer than RecordSize bytes are decoded.
	ErrShortRecord = errors.New("needle: short index record")
	// ErrInvalidRecord is returned for records with negative fields.
	ErrInvalidRecord = errors.New("needle: invalid index record")
)

// Record is the decoded form of one index entry.
type Record struct {
	Shard  int32
	Needle int32
	Offset int64
	Size   int64
}

// End returns the stack offset one past the last byte of the needle.
func (r Record) End() int64 { return r.Offset + r.Size }

// Validate checks the fields that can never be negative.
func (r Record) Validate() error {
	if r.Shard < 0 || r.Needle < 0 || r.Offset < 0 || r.Size < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidRecord, r)
	}
	return nil
}

// Put encodes r into dst, which must be at least RecordSize bytes long.
func (r Record) Put(dst []byte) {
	_ = dst[RecordSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], uint32(r.Shard))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(r.Needle))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(r.Offset))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(r.Size))
}

// Append appends the encoded record to dst.
func (r Record) Append(dst []byte) []byte {
	var buf [RecordSize]byte
	r.Put(buf[:])
	return append(dst, buf[:]...)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.Append(make([]byte, 0, RecordSize)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Record) UnmarshalBinary(data []byte) error {
	rec, err := Decode(data)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// Decode decodes the first RecordSize bytes of src.
func Decode(src []byte) (Record, error) {
	if len(src) < RecordSize {
		return Record{}, fmt.Errorf("%w: got %d bytes", ErrShortRecord, len(src))
	}
	return Record{
		Shard:  int32(binary.LittleEndian.Uint32(src[0:4])),
		Needle: int32(binary.LittleEndian.Uint32(src[4:8])),
		Offset: int64(binary.LittleEndian.Uint64(src[8:16])),
		Size:   int64(binary.LittleEndian.Uint64(src[16:24])),
	}, nil
}

// Position returns the byte offset of record n within an index file.
func Position(n int) int64 { return int64(n) * RecordSize }

// Count returns the number of whole records in an index of the given length.
func Count(indexLen int64) int64 { return indexLen / RecordSize }

// Aligned reports whether indexLen holds only whole records.
func Aligned(indexLen int64) bool { return indexLen%RecordSize == 0 }

// Floor rounds indexLen down to a whole number of records.
func Floor(indexLen int64) int64 { return indexLen - indexLen%RecordSize }
