// Package hues parses hues.mul, the palette-remap table applied to sprites at
// render time.
package hues

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-uo/pkg/encoding"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

// Table layout.
const (
	ColorsPerHue  = 32
	HuesPerGroup  = 8
	nameLength    = 20
	entrySize     = ColorsPerHue*2 + 2 + 2 + nameLength
	groupSize     = 4 + HuesPerGroup*entrySize
	SamplerWidth  = ColorsPerHue
	SamplerHeight = 3000
)

// ErrTruncated is returned when hues.mul holds no complete group.
var ErrTruncated = errors.New("truncated hues data")

// Hue is one 32-step color ramp.
type Hue struct {
	Colors     [ColorsPerHue]uint16
	TableStart uint16
	TableEnd   uint16
	Name       string
}

// Table is the parsed hues.mul. Hue IDs are 1-based in game data; entry 0
// of Hues is hue 1.
type Table struct {
	Hues []Hue
}

// Parse decodes every complete group in data.
func Parse(data []byte) (*Table, error) {
	groups := len(data) / groupSize
	if groups == 0 {
		return nil, ErrTruncated
	}

	t := &Table{Hues: make([]Hue, 0, groups*HuesPerGroup)}
	r := mul.NewReader(data)
	for g := 0; g < groups; g++ {
		_ = r.Skip(4)
		for i := 0; i < HuesPerGroup; i++ {
			var h Hue
			for c := range h.Colors {
				h.Colors[c], _ = r.ReadU16()
			}
			h.TableStart, _ = r.ReadU16()
			h.TableEnd, _ = r.ReadU16()
			name, _ := r.ReadBytes(nameLength)
			h.Name = encoding.FixedString(name)
			t.Hues = append(t.Hues, h)
		}
	}
	return t, nil
}

// ParseFile reads hues.mul from disk.
func ParseFile(path string) (*Table, error) {
	f, err := mul.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hues: %w", err)
	}
	defer f.Close()
	return Parse(f.Bytes())
}

// Len returns the number of hues.
func (t *Table) Len() int {
	return len(t.Hues)
}

// Get returns the hue for a 1-based hue ID; ok is false for 0 or unknown IDs.
func (t *Table) Get(id uint16) (Hue, bool) {
	id &= 0x7FFF
	if id == 0 || int(id) > len(t.Hues) {
		return Hue{}, false
	}
	return t.Hues[id-1], true
}

// ShaderColors fills dst with one 32-pixel opaque RGBA row per hue, the
// layout the hue sampler texture expects. Rows past the table stay zero.
// It returns the number of rows written.
func (t *Table) ShaderColors(dst []uint32) int {
	rows := len(dst) / SamplerWidth
	if rows > len(t.Hues) {
		rows = len(t.Hues)
	}
	clear(dst)
	for i := 0; i < rows; i++ {
		row := dst[i*SamplerWidth : (i+1)*SamplerWidth]
		for j, c := range t.Hues[i].Colors {
			row[j] = pixel.Color16To32(c) | 0xFF000000
		}
	}
	return rows
}
