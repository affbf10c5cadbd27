// Package binio provides seekable, byte-order aware record readers over
// frame files.
package binio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"
)

// RecordReader is a seekable binary stream that can be closed and reopened
// between reads.
type RecordReader interface {
	io.Reader
	io.ByteReader

	Seek(offset int64) error
	Skip(n int) error
	ReadFixedString(n int) (string, error)
	ReadInt16() (int16, error)
	ReadUint32() (uint32, error)
	SetByteOrder(msbFirst bool)

	Close() error
	Reopen() error
	IsOpen() bool
	Name() string
}

// Opener creates a RecordReader for a path.
type Opener func(path string) (RecordReader, error)

// Open picks a reader implementation based on the file name.
func Open(path string) (RecordReader, error) {
	if strings.HasSuffix(strings.ToLower(path), ".zst") {
		zr, err := OpenZstd(path)
		if err != nil {
			return nil, err
		}
		return zr, nil
	}
	fr, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

// decoder holds the shared byte order handling of the readers
type decoder struct {
	order binary.ByteOrder
	buf   [4]byte
}

func (d *decoder) SetByteOrder(msbFirst bool) {
	if msbFirst {
		d.order = binary.BigEndian
	} else {
		d.order = binary.LittleEndian
	}
}

func (d *decoder) readInt16(r io.Reader) (int16, error) {
	if _, err := io.ReadFull(r, d.buf[:2]); err != nil {
		return 0, shortRead(err)
	}
	return int16(d.order.Uint16(d.buf[:2])), nil
}

func (d *decoder) readUint32(r io.Reader) (uint32, error) {
	if _, err := io.ReadFull(r, d.buf[:4]); err != nil {
		return 0, shortRead(err)
	}
	return d.order.Uint32(d.buf[:4]), nil
}

func readFixedString(r io.Reader, n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", shortRead(err)
	}
	return string(b), nil
}

func shortRead(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", common.ErrShortRead, err)
	}
	return err
}

// FileReader reads directly from a file on disk through a buffer.
type FileReader struct {
	decoder
	path string
	f    *os.File
	br   *bufio.Reader
}

// OpenFile opens path for most-significant-byte-first reading.
func OpenFile(path string) (*FileReader, error) {
	fr := &FileReader{path: path}
	fr.SetByteOrder(true)
	if err := fr.Reopen(); err != nil {
		return nil, err
	}
	return fr, nil
}

func (fr *FileReader) Name() string { return fr.path }

func (fr *FileReader) IsOpen() bool { return fr.f != nil }

// Reopen opens the underlying file again; it is a no-op when already open.
func (fr *FileReader) Reopen() error {
	if fr.f != nil {
		return nil
	}
	f, err := os.Open(fr.path)
	if err != nil {
		return err
	}
	fr.f = f
	if fr.br == nil {
		fr.br = bufio.NewReaderSize(f, 8192)
	} else {
		fr.br.Reset(f)
	}
	return nil
}

func (fr *FileReader) Close() error {
	if fr.f == nil {
		return nil
	}
	err := fr.f.Close()
	fr.f = nil
	return err
}

func (fr *FileReader) Seek(offset int64) error {
	if fr.f == nil {
		return common.ErrReaderClosed
	}
	if _, err := fr.f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	fr.br.Reset(fr.f)
	return nil
}

func (fr *FileReader) Skip(n int) error {
	if fr.f == nil {
		return common.ErrReaderClosed
	}
	if _, err := fr.br.Discard(n); err != nil {
		return shortRead(err)
	}
	return nil
}

func (fr *FileReader) Read(p []byte) (int, error) {
	if fr.f == nil {
		return 0, common.ErrReaderClosed
	}
	return fr.br.Read(p)
}

func (fr *FileReader) ReadByte() (byte, error) {
	if fr.f == nil {
		return 0, common.ErrReaderClosed
	}
	b, err := fr.br.ReadByte()
	if err != nil {
		return 0, shortRead(err)
	}
	return b, nil
}

func (fr *FileReader) ReadFixedString(n int) (string, error) {
	if fr.f == nil {
		return "", common.ErrReaderClosed
	}
	return readFixedString(fr.br, n)
}

func (fr *FileReader) ReadInt16() (int16, error) {
	if fr.f == nil {
		return 0, common.ErrReaderClosed
	}
	return fr.readInt16(fr.br)
}

func (fr *FileReader) ReadUint32() (uint32, error) {
	if fr.f == nil {
		return 0, common.ErrReaderClosed
	}
	return fr.readUint32(fr.br)
}
