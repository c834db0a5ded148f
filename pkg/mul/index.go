package mul

import (
	"encoding/binary"
	"fmt"
)

// IndexRecordSize is the size of one record in an *idx.mul file.
const IndexRecordSize = 12

// Entry locates one resource inside a data file.
// Length == 0 means the resource has no data.
type Entry struct {
	Offset uint64
	Length uint32
	Extra  uint32

	// DecompressedLength is only set for compressed archive entries.
	DecompressedLength uint32
	Compressed         bool
}

// Valid reports whether the entry has any data.
func (e Entry) Valid() bool {
	return e.Length > 0
}

// ParseIndex decodes up to max 12-byte {offset, length, extra} records.
// The returned slice always has max entries; records missing from the file,
// or with a negative offset or length, are left empty.
func ParseIndex(data []byte, max int) []Entry {
	entries := make([]Entry, max)

	count := len(data) / IndexRecordSize
	if count > max {
		count = max
	}

	for i := 0; i < count; i++ {
		rec := data[i*IndexRecordSize:]
		offset := int32(binary.LittleEndian.Uint32(rec))
		length := int32(binary.LittleEndian.Uint32(rec[4:]))
		extra := binary.LittleEndian.Uint32(rec[8:])

		if offset < 0 || length <= 0 {
			continue
		}
		entries[i] = Entry{
			Offset: uint64(offset),
			Length: uint32(length),
			Extra:  extra,
		}
	}

	return entries
}

// Source resolves resource IDs to raw bytes.
type Source interface {
	// Entry returns the index entry for id; ok is false when id is out of range.
	Entry(id int) (Entry, bool)
	// Read returns the bytes of an entry. Uncompressed sources return a view
	// into the backing file.
	Read(e Entry) ([]byte, error)
	// Count returns the number of addressable IDs.
	Count() int
	Close() error
}

// IndexedFile is the legacy idx+mul pair.
type IndexedFile struct {
	data    *File
	entries []Entry
}

// OpenIndexed opens a data file and its index, keeping up to max entries.
func OpenIndexed(dataPath, indexPath string, max int) (*IndexedFile, error) {
	idx, err := Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	data, err := Open(dataPath)
	if err != nil {
		return nil, err
	}

	return NewIndexedFile(data, idx.Bytes(), max), nil
}

// NewIndexedFile pairs an opened data file with raw index bytes.
func NewIndexedFile(data *File, index []byte, max int) *IndexedFile {
	return &IndexedFile{
		data:    data,
		entries: ParseIndex(index, max),
	}
}

// Entry implements Source.
func (f *IndexedFile) Entry(id int) (Entry, bool) {
	if id < 0 || id >= len(f.entries) {
		return Entry{}, false
	}
	return f.entries[id], true
}

// Read implements Source.
func (f *IndexedFile) Read(e Entry) ([]byte, error) {
	if !e.Valid() {
		return nil, nil
	}
	data, err := f.data.Slice(int64(e.Offset), int(e.Length))
	if err != nil {
		return nil, fmt.Errorf("%w: entry at %d", ErrTruncated, e.Offset)
	}
	return data, nil
}

// Count implements Source.
func (f *IndexedFile) Count() int {
	return len(f.entries)
}

// Close implements Source.
func (f *IndexedFile) Close() error {
	return f.data.Close()
}
