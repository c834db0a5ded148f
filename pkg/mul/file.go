package mul

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/blevesearch/mmap-go"
)

// MapThreshold is the file size from which Open memory-maps instead of reading
// the whole file onto the heap.
const MapThreshold = 10 << 20

// File is a read-only view of an asset file held for the process lifetime.
type File struct {
	path   string
	data   []byte
	mapped mmap.MMap
	fd     *os.File
}

// Open opens path and exposes its bytes. Large files are memory-mapped.
// A missing file yields an error wrapping ErrNotFound.
func Open(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Size() < MapThreshold {
		data := make([]byte, info.Size())
		if _, err := fd.ReadAt(data, 0); err != nil && info.Size() > 0 {
			fd.Close()
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		fd.Close()
		return &File{path: path, data: data}, nil
	}

	m, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}

	return &File{path: path, data: m, mapped: m, fd: fd}, nil
}

// OpenOptional is Open for files whose absence only disables a feature.
// It returns (nil, nil) when the file does not exist.
func OpenOptional(path string) (*File, error) {
	f, err := Open(path)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return f, err
}

// FromBytes wraps an in-memory buffer as a File.
func FromBytes(name string, data []byte) *File {
	return &File{path: name, data: data}
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Len returns the file size in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Bytes returns the whole file. The slice must not be modified.
func (f *File) Bytes() []byte {
	return f.data
}

// Mapped reports whether the file is backed by a memory mapping.
func (f *File) Mapped() bool {
	return f.mapped != nil
}

// Reader returns a new cursor over the file.
func (f *File) Reader() *Reader {
	return NewReader(f.data)
}

// Slice returns a zero-copy view of length bytes at offset.
func (f *File) Slice(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+int64(length) > int64(len(f.data)) {
		return nil, fmt.Errorf("%w: %s [%d:+%d] (size %d)", ErrOutOfBounds, f.path, offset, length, len(f.data))
	}
	return f.data[offset : offset+int64(length) : offset+int64(length)], nil
}

// Close releases the mapping and file handle.
func (f *File) Close() error {
	var err error
	if f.mapped != nil {
		err = f.mapped.Unmap()
		f.mapped = nil
	}
	if f.fd != nil {
		if cerr := f.fd.Close(); err == nil {
			err = cerr
		}
		f.fd = nil
	}
	f.data = nil
	return err
}
