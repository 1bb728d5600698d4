package needle

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLayout(t *testing.T) {
	rec := Record{Shard: 3, Needle: 7, Offset: 1 << 40, Size: 123456}
	buf := rec.Append(nil)
	require.Len(t, buf, RecordSize)

	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, uint64(1<<40), binary.LittleEndian.Uint64(buf[8:16]))
	assert.Equal(t, uint64(123456), binary.LittleEndian.Uint64(buf[16:24]))

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, int64(1<<40+123456), got.End())
}

func TestDecodeShort(t *testing.T) {
	_, err := Decode(make([]byte, RecordSize-1))
	assert.ErrorIs(t, err, ErrShortRecord)

	var r Record
	assert.ErrorIs(t, r.UnmarshalBinary([]byte{1, 2, 3}), ErrShortRecord)
}

func TestBinaryMarshaler(t *testing.T) {
	in := Record{Shard: 1, Needle: 2, Offset: 3, Size: 4}
	data, err := in.MarshalBinary()
	require.NoError(t, err)

	var out Record
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, in, out)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Record{}.Validate())
	assert.ErrorIs(t, Record{Size: -1}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{Offset: -5}.Validate(), ErrInvalidRecord)
}

func TestIndexArithmetic(t *testing.T) {
	tests := []struct {
		length  int64
		count   int64
		aligned bool
		floor   int64
	}{
		{0, 0, true, 0},
		{24, 1, true, 24},
		{32, 1, false, 24},
		{71, 2, false, 48},
		{72, 3, true, 72},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.count, Count(tt.length), "count(%d)", tt.length)
		assert.Equal(t, tt.aligned, Aligned(tt.length), "aligned(%d)", tt.length)
		assert.Equal(t, tt.floor, Floor(tt.length), "floor(%d)", tt.length)
	}
	assert.Equal(t, int64(48), Position(2))
}
