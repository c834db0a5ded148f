// Package uop provides reading functionality for Ultima Online UOP archives.
//
// A UOP archive stores resources in chained blocks of table entries. Entries
// are addressed by a 64-bit hash of a formatted path such as
// "build/artlegacymul/00001234.tga", so callers resolve IDs through a name
// pattern rather than a directory listing.
package uop

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/Faultbox/midgard-uo/pkg/encoding"
	"github.com/Faultbox/midgard-uo/pkg/mul"
)

const (
	uopMagic     = 0x50594D // "MYP\0"
	entrySize    = 34
	maxBlockHops = 1 << 16
)

// Compression flags stored per entry.
const (
	CompressionNone = 0
	CompressionZlib = 1
)

// UOP format errors.
var (
	ErrInvalidHeader          = errors.New("invalid UOP header")
	ErrUnsupportedCompression = errors.New("unsupported UOP compression")
)

// Header contains the archive header fields.
type Header struct {
	Magic      uint32
	Version    uint32
	Signature  uint32
	FirstBlock uint64
	BlockSize  uint32
	FileCount  int32
}

type rawEntry struct {
	offset       uint64
	headerLength uint32
	compressed   uint32
	decompressed uint32
	flag         uint16
}

// Archive represents an opened UOP archive with its entries resolved to IDs.
type Archive struct {
	file    *mul.File
	header  Header
	entries []mul.Entry
	total   int
}

// Open opens a UOP archive and resolves IDs [0, max) through pattern, a
// fmt verb string like "build/artlegacymul/%08d.tga". The ID space grows to
// the archive's file count when that is larger than max.
func Open(path, pattern string, max int) (*Archive, error) {
	file, err := mul.Open(path)
	if err != nil {
		return nil, err
	}

	archive, err := New(file, pattern, max)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return archive, nil
}

// New parses an already opened archive file.
func New(file *mul.File, pattern string, max int) (*Archive, error) {
	a := &Archive{file: file}

	r := file.Reader()
	if err := a.readHeader(r); err != nil {
		return nil, err
	}

	byHash, err := a.readFileTable(r)
	if err != nil {
		return nil, err
	}
	a.total = len(byHash)

	count := max
	if int(a.header.FileCount) > count {
		count = int(a.header.FileCount)
	}
	a.entries = make([]mul.Entry, count)

	for i := 0; i < count; i++ {
		raw, ok := byHash[Hash(encoding.NormalizePath(fmt.Sprintf(pattern, i)))]
		if !ok {
			continue
		}
		a.entries[i] = mul.Entry{
			Offset:             raw.offset + uint64(raw.headerLength),
			Length:             raw.compressed,
			DecompressedLength: raw.decompressed,
			Compressed:         raw.flag == CompressionZlib,
		}
		if raw.flag != CompressionNone && raw.flag != CompressionZlib {
			// Keep the entry addressable so Read can report the flag.
			a.entries[i].Extra = uint32(raw.flag)
		}
	}

	return a, nil
}

func (a *Archive) readHeader(r *mul.Reader) error {
	var err error
	read32 := func() uint32 {
		var v uint32
		if err == nil {
			v, err = r.ReadU32()
		}
		return v
	}

	a.header.Magic = read32()
	a.header.Version = read32()
	a.header.Signature = read32()
	if err == nil {
		a.header.FirstBlock, err = r.ReadU64()
	}
	a.header.BlockSize = read32()
	a.header.FileCount = int32(read32())

	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if a.header.Magic != uopMagic {
		return fmt.Errorf("%w: bad magic 0x%08X", ErrInvalidHeader, a.header.Magic)
	}
	return nil
}

func (a *Archive) readFileTable(r *mul.Reader) (map[uint64]rawEntry, error) {
	byHash := make(map[uint64]rawEntry)
	next := a.header.FirstBlock

	for hops := 0; next != 0; hops++ {
		if hops > maxBlockHops {
			return nil, fmt.Errorf("%w: block chain does not terminate", ErrInvalidHeader)
		}
		if err := r.Seek(int64(next)); err != nil {
			return nil, fmt.Errorf("%w: block at %d", mul.ErrTruncated, next)
		}

		files, err := r.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%w: block file count", mul.ErrTruncated)
		}
		if next, err = r.ReadU64(); err != nil {
			return nil, fmt.Errorf("%w: next block offset", mul.ErrTruncated)
		}

		table, err := r.ReadBytes(int(files) * entrySize)
		if err != nil {
			return nil, fmt.Errorf("%w: block table of %d entries", mul.ErrTruncated, files)
		}
		tr := mul.NewReader(table)

		for i := int32(0); i < files; i++ {
			var e rawEntry
			var hash uint64
			e.offset, _ = tr.ReadU64()
			e.headerLength, _ = tr.ReadU32()
			e.compressed, _ = tr.ReadU32()
			e.decompressed, _ = tr.ReadU32()
			hash, _ = tr.ReadU64()
			_, _ = tr.ReadU32() // adler32 of the payload
			e.flag, _ = tr.ReadU16()

			if e.offset == 0 {
				continue
			}
			byHash[hash] = e
		}
	}

	return byHash, nil
}

// Header returns the parsed archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Files returns the number of entries found in the block chain.
func (a *Archive) Files() int {
	return a.total
}

// Entry implements mul.Source.
func (a *Archive) Entry(id int) (mul.Entry, bool) {
	if id < 0 || id >= len(a.entries) {
		return mul.Entry{}, false
	}
	return a.entries[id], true
}

// Count implements mul.Source.
func (a *Archive) Count() int {
	return len(a.entries)
}

// Read implements mul.Source. Stored entries are returned as views into the
// archive; zlib entries are inflated into a new buffer.
func (a *Archive) Read(e mul.Entry) ([]byte, error) {
	if !e.Valid() {
		return nil, nil
	}
	if e.Extra != 0 {
		return nil, fmt.Errorf("%w: flag %d", ErrUnsupportedCompression, e.Extra)
	}

	data, err := a.file.Slice(int64(e.Offset), int(e.Length))
	if err != nil {
		return nil, fmt.Errorf("%w: entry at %d", mul.ErrTruncated, e.Offset)
	}

	if !e.Compressed {
		return data, nil
	}

	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflating entry at %d: %w", e.Offset, err)
	}
	defer reader.Close()

	result := make([]byte, e.DecompressedLength)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: inflating entry at %d: %v", mul.ErrTruncated, e.Offset, err)
	}
	return result, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
