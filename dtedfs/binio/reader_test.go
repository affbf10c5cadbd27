package binio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []byte{
	'U', 'H', 'L', '1', // fixed string
	0xFF, 0xFE, // int16 -2 big endian
	0x00, 0x00, 0x01, 0x02, // uint32 258 big endian
	0xAA, 0x01,
}

func writeSample(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func exerciseReader(t *testing.T, r RecordReader) {
	t.Helper()

	s, err := r.ReadFixedString(3)
	require.NoError(t, err)
	assert.Equal(t, "UHL", s)
	require.NoError(t, r.Skip(1))

	v, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), v)

	u, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(258), u)

	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)

	require.NoError(t, r.Seek(4))
	r.SetByteOrder(false)
	v, err = r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-257), v)
	r.SetByteOrder(true)

	require.NoError(t, r.Seek(11))
	_, err = r.ReadInt16()
	assert.ErrorIs(t, err, common.ErrShortRead)

	require.NoError(t, r.Seek(0))
	_, err = r.ReadFixedString(20)
	assert.ErrorIs(t, err, common.ErrShortRead)
}

func exerciseClose(t *testing.T, r RecordReader) {
	t.Helper()

	require.True(t, r.IsOpen())
	require.NoError(t, r.Close())
	assert.False(t, r.IsOpen())
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.Seek(0), common.ErrReaderClosed)
	_, err := r.ReadByte()
	assert.ErrorIs(t, err, common.ErrReaderClosed)
	_, err = r.ReadInt16()
	assert.ErrorIs(t, err, common.ErrReaderClosed)

	require.NoError(t, r.Reopen())
	assert.True(t, r.IsOpen())
	require.NoError(t, r.Seek(4))
	v, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), v)
}

func TestFileReader(t *testing.T) {
	path := writeSample(t, "sample.dt1", sample)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, isFile := r.(*FileReader)
	assert.True(t, isFile)
	assert.Equal(t, path, r.Name())
	exerciseReader(t, r)
	exerciseClose(t, r)
}

func TestFileReader_Missing(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "missing.dt1"))
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestMemoryReader(t *testing.T) {
	r := NewMemoryReader("mem", sample)
	exerciseReader(t, r)
	exerciseClose(t, r)

	require.NoError(t, r.Seek(0))
	assert.ErrorIs(t, r.Skip(100), common.ErrShortRead)
}

func TestOpenZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(sample, nil)
	require.NoError(t, enc.Close())

	path := writeSample(t, "sample.dt1.zst", compressed)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, isMemory := r.(*MemoryReader)
	assert.True(t, isMemory)
	exerciseReader(t, r)
	exerciseClose(t, r)
}

func TestOpenZstd_Corrupt(t *testing.T) {
	path := writeSample(t, "bad.dt1.zst", []byte("not zstd at all"))
	_, err := OpenZstd(path)
	assert.Error(t, err)
}
