package binio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"

	"github.com/klauspost/compress/zstd"
)

// MemoryReader serves reads from an in-memory copy of a frame. The load
// function is called on every Reopen, so closing the reader releases the
// buffer.
type MemoryReader struct {
	decoder
	name string
	load func() ([]byte, error)
	r    *bytes.Reader
}

// NewMemoryReader wraps data directly. Reopen after Close restores the same
// bytes.
func NewMemoryReader(name string, data []byte) *MemoryReader {
	mr := &MemoryReader{
		name: name,
		load: func() ([]byte, error) { return data, nil },
	}
	mr.SetByteOrder(true)
	mr.r = bytes.NewReader(data)
	return mr
}

// OpenZstd decodes a zstd compressed frame file into memory.
func OpenZstd(path string) (*MemoryReader, error) {
	mr := &MemoryReader{
		name: path,
		load: func() ([]byte, error) { return decodeZstdFile(path) },
	}
	mr.SetByteOrder(true)
	if err := mr.Reopen(); err != nil {
		return nil, err
	}
	return mr, nil
}

func decodeZstdFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader for %s: %w", path, err)
	}
	defer zr.Close()

	b, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return b, nil
}

func (mr *MemoryReader) Name() string { return mr.name }

func (mr *MemoryReader) IsOpen() bool { return mr.r != nil }

func (mr *MemoryReader) Reopen() error {
	if mr.r != nil {
		return nil
	}
	b, err := mr.load()
	if err != nil {
		return err
	}
	mr.r = bytes.NewReader(b)
	return nil
}

func (mr *MemoryReader) Close() error {
	mr.r = nil
	return nil
}

func (mr *MemoryReader) Seek(offset int64) error {
	if mr.r == nil {
		return common.ErrReaderClosed
	}
	_, err := mr.r.Seek(offset, io.SeekStart)
	return err
}

func (mr *MemoryReader) Skip(n int) error {
	if mr.r == nil {
		return common.ErrReaderClosed
	}
	if int64(n) > int64(mr.r.Len()) {
		return fmt.Errorf("%w: skip %d with %d remaining", common.ErrShortRead, n, mr.r.Len())
	}
	_, err := mr.r.Seek(int64(n), io.SeekCurrent)
	return err
}

func (mr *MemoryReader) Read(p []byte) (int, error) {
	if mr.r == nil {
		return 0, common.ErrReaderClosed
	}
	return mr.r.Read(p)
}

func (mr *MemoryReader) ReadByte() (byte, error) {
	if mr.r == nil {
		return 0, common.ErrReaderClosed
	}
	b, err := mr.r.ReadByte()
	if err != nil {
		return 0, shortRead(err)
	}
	return b, nil
}

func (mr *MemoryReader) ReadFixedString(n int) (string, error) {
	if mr.r == nil {
		return "", common.ErrReaderClosed
	}
	return readFixedString(mr.r, n)
}

func (mr *MemoryReader) ReadInt16() (int16, error) {
	if mr.r == nil {
		return 0, common.ErrReaderClosed
	}
	return mr.readInt16(mr.r)
}

func (mr *MemoryReader) ReadUint32() (uint32, error) {
	if mr.r == nil {
		return 0, common.ErrReaderClosed
	}
	return mr.readUint32(mr.r)
}
