// Package mul provides random-access readers over Ultima Online client files.
//
// The legacy client stores its assets as flat little-endian record files
// (*.mul) paired with 12-byte index files (*idx.mul). Everything here reads
// directly out of a byte slice, which is usually a read-only memory mapping,
// so sub-slices handed out by ReadBytes are views into the file and never
// copies.
package mul

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors shared by every reader in the asset pipeline.
var (
	ErrNotFound    = errors.New("asset file not found")
	ErrOutOfBounds = errors.New("read out of bounds")
	ErrTruncated   = errors.New("truncated data")
)

// Reader is a cursor over a byte slice with bounds-checked little-endian reads.
// A failed read leaves the cursor where it was.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the size of the backing region.
func (r *Reader) Len() int {
	return len(r.data)
}

// Pos returns the absolute cursor position.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bytes after the cursor.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves the cursor to an absolute offset. Seeking to exactly Len is allowed.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(r.data)) {
		return fmt.Errorf("%w: seek to %d (size %d)", ErrOutOfBounds, offset, len(r.data))
	}
	r.pos = int(offset)
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *Reader) need(n int) error {
	if n < 0 || n > len(r.data)-r.pos {
		return fmt.Errorf("%w: need %d bytes at %d (size %d)", ErrOutOfBounds, n, r.pos, len(r.data))
	}
	return nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadI16 reads a little-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadI64 reads a little-endian int64.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadBytes returns a view of the next n bytes without copying.
// The view's capacity is clipped so appends cannot clobber the backing file.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return v, nil
}
