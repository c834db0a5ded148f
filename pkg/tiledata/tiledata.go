// Package tiledata parses tiledata.mul, the per-graphic attribute tables for
// land and item (static) tiles.
package tiledata

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-uo/pkg/encoding"
	"github.com/Faultbox/midgard-uo/pkg/mul"
)

// Table dimensions.
const (
	LandCount      = 0x4000
	MaxItemCount   = 0x10000
	landGroups     = 512
	maxItemGroups  = 2048
	groupSize      = 32
	groupHeader    = 4
	nameLength     = 20
	landFixedBytes = 2 + nameLength  // texID, name
	itemFixedBytes = 13 + nameLength // weight .. height, name
)

// ErrTruncated is returned when tiledata.mul is too short to hold anything.
var ErrTruncated = errors.New("truncated tiledata")

// Layout selects one of the two on-disk record formats.
type Layout struct {
	name      string
	flagBytes int
}

// The two tiledata layouts. Clients before 7.0.9.0 store 32-bit flags.
var (
	LayoutOld = Layout{name: "old", flagBytes: 4}
	LayoutNew = Layout{name: "new", flagBytes: 8}
)

// LayoutFor returns the layout a client version writes.
func LayoutFor(v ClientVersion) Layout {
	if v < VersionNewTileData {
		return LayoutOld
	}
	return LayoutNew
}

// String returns "old" or "new".
func (l Layout) String() string {
	return l.name
}

func (l Layout) landRecordSize() int { return l.flagBytes + landFixedBytes }
func (l Layout) itemRecordSize() int { return l.flagBytes + itemFixedBytes }

// LandGroupSize returns the byte size of one group of 32 land records.
func (l Layout) LandGroupSize() int { return groupHeader + groupSize*l.landRecordSize() }

// ItemGroupSize returns the byte size of one group of 32 item records.
func (l Layout) ItemGroupSize() int { return groupHeader + groupSize*l.itemRecordSize() }

func (l Layout) readFlags(r *mul.Reader) (Flag, error) {
	if l.flagBytes == 8 {
		v, err := r.ReadU64()
		return Flag(v), err
	}
	v, err := r.ReadU32()
	return Flag(v), err
}

// LandData describes a terrain graphic.
type LandData struct {
	Flags     Flag
	TextureID uint16
	Name      string
}

// IsWet reports whether the land tile is water.
func (d LandData) IsWet() bool { return d.Flags.Any(Wet) }

// IsImpassable reports whether the land tile blocks movement.
func (d LandData) IsImpassable() bool { return d.Flags.Any(Impassable) }

// ItemData describes a static or item graphic.
type ItemData struct {
	Flags      Flag
	Weight     uint8
	Layer      uint8
	Count      int32
	AnimID     uint16
	Hue        uint16
	LightIndex uint16
	Height     uint8
	Name       string
}

// IsBackground reports the Background flag.
func (d ItemData) IsBackground() bool { return d.Flags.Any(Background) }

// IsSurface reports the Surface flag.
func (d ItemData) IsSurface() bool { return d.Flags.Any(Surface) }

// IsFoliage reports the Foliage flag.
func (d ItemData) IsFoliage() bool { return d.Flags.Any(Foliage) }

// IsRoof reports the Roof flag.
func (d ItemData) IsRoof() bool { return d.Flags.Any(Roof) }

// IsBridge reports the Bridge flag.
func (d ItemData) IsBridge() bool { return d.Flags.Any(Bridge) }

// IsWet reports the Wet flag.
func (d ItemData) IsWet() bool { return d.Flags.Any(Wet) }

// IsImpassable reports the Impassable flag.
func (d ItemData) IsImpassable() bool { return d.Flags.Any(Impassable) }

// IsPartialHue reports whether only gray pixels take the hue.
func (d ItemData) IsPartialHue() bool { return d.Flags.Any(PartialHue) }

// IsLightSource reports the LightSource flag.
func (d ItemData) IsLightSource() bool { return d.Flags.Any(LightSource) }

// CalcHeight returns the standing height; bridges count half.
func (d ItemData) CalcHeight() int {
	if d.IsBridge() {
		return int(d.Height) / 2
	}
	return int(d.Height)
}

// Table holds both tiledata tables. It is read-only after Parse.
type Table struct {
	Layout Layout
	Land   []LandData
	Items  []ItemData

	// Truncated is set when the file ended inside a group.
	Truncated bool
}

// LandTile returns the land entry for a graphic, masked to the land range.
func (t *Table) LandTile(id uint16) LandData {
	return t.Land[int(id)&(LandCount-1)]
}

// ItemTile returns the item entry for a graphic; ok is false past the table.
func (t *Table) ItemTile(id uint16) (ItemData, bool) {
	if int(id) >= len(t.Items) {
		return ItemData{}, false
	}
	return t.Items[id], true
}

// ItemCount returns the number of item entries.
func (t *Table) ItemCount() int {
	return len(t.Items)
}

// StaticFlags returns the item flags for a graphic; ok is false past the table.
func (t *Table) StaticFlags(id uint16) (Flag, bool) {
	d, ok := t.ItemTile(id)
	return d.Flags, ok
}

// ItemGroupCount derives the number of item groups from the file length,
// capped at 2048 groups.
func ItemGroupCount(length int, layout Layout) int {
	n := (length - landGroups*layout.LandGroupSize()) / layout.ItemGroupSize()
	if n < 0 {
		return 0
	}
	if n > maxItemGroups {
		n = maxItemGroups
	}
	return n
}

// Parse decodes tiledata.mul. The land table is 512 groups of 32 records
// and the item table fills the rest of the file. Each group begins with a
// 4-byte header. A file that ends mid-group yields a partial table with
// Truncated set.
func Parse(data []byte, layout Layout) (*Table, error) {
	if len(data) < groupHeader {
		return nil, ErrTruncated
	}

	t := &Table{
		Layout: layout,
		Land:   make([]LandData, LandCount),
		Items:  make([]ItemData, ItemGroupCount(len(data), layout)*groupSize),
	}
	r := mul.NewReader(data)

	if !t.parseLand(r) {
		t.Truncated = true
		return t, nil
	}
	if !t.parseItems(r) {
		t.Truncated = true
	}
	return t, nil
}

// recordReader reads the fields of one record and keeps the first error, so
// a record is either read whole or discarded.
type recordReader struct {
	r      *mul.Reader
	layout Layout
	err    error
}

func (rr *recordReader) flags() Flag {
	if rr.err != nil {
		return 0
	}
	var f Flag
	f, rr.err = rr.layout.readFlags(rr.r)
	return f
}

func (rr *recordReader) u8() uint8 {
	if rr.err != nil {
		return 0
	}
	var v uint8
	v, rr.err = rr.r.ReadU8()
	return v
}

func (rr *recordReader) u16() uint16 {
	if rr.err != nil {
		return 0
	}
	var v uint16
	v, rr.err = rr.r.ReadU16()
	return v
}

func (rr *recordReader) i32() int32 {
	if rr.err != nil {
		return 0
	}
	var v int32
	v, rr.err = rr.r.ReadI32()
	return v
}

func (rr *recordReader) name() string {
	if rr.err != nil {
		return ""
	}
	var b []byte
	b, rr.err = rr.r.ReadBytes(nameLength)
	if rr.err != nil {
		return ""
	}
	return encoding.FixedString(b)
}

func (t *Table) parseLand(r *mul.Reader) bool {
	rr := &recordReader{r: r, layout: t.Layout}
	for g := 0; g < landGroups; g++ {
		if r.Skip(groupHeader) != nil {
			return false
		}
		for j := 0; j < groupSize; j++ {
			d := LandData{
				Flags:     rr.flags(),
				TextureID: rr.u16(),
				Name:      rr.name(),
			}
			if rr.err != nil {
				return false
			}
			t.Land[g*groupSize+j] = d
		}
	}
	return true
}

func (t *Table) parseItems(r *mul.Reader) bool {
	rr := &recordReader{r: r, layout: t.Layout}
	groups := len(t.Items) / groupSize
	for g := 0; g < groups; g++ {
		if r.Remaining() == 0 {
			return true
		}
		if r.Skip(groupHeader) != nil {
			return false
		}
		for j := 0; j < groupSize; j++ {
			d := ItemData{
				Flags:      rr.flags(),
				Weight:     rr.u8(),
				Layer:      rr.u8(),
				Count:      rr.i32(),
				AnimID:     rr.u16(),
				Hue:        rr.u16(),
				LightIndex: rr.u16(),
				Height:     rr.u8(),
				Name:       rr.name(),
			}
			if rr.err != nil {
				return false
			}
			t.Items[g*groupSize+j] = d
		}
	}
	return true
}

// ParseFile loads tiledata.mul from disk. A missing file is reported as
// mul.ErrNotFound; nothing renders without this table.
func ParseFile(path string, layout Layout) (*Table, error) {
	f, err := mul.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tiledata: %w", err)
	}
	defer f.Close()

	t, err := Parse(f.Bytes(), layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
