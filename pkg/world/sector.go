package world

import (
	"cmp"
	"encoding/binary"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
)

// noStatics is returned for cells without statics so callers never see nil.
var noStatics = []StaticTile{}

// Sector is an 8x8 block of terrain and the statics placed on it.
// Cells are indexed by their offset inside the sector.
type Sector struct {
	X, Y int

	land    [sectorArea]LandTile
	statics [sectorArea][]StaticTile
}

func newInvalidSector() *Sector {
	return &Sector{X: -1, Y: -1}
}

// Land returns the terrain cell at offset (cx, cy), each in [0, 8).
func (s *Sector) Land(cx, cy int) LandTile {
	return s.land[cy*SectorSize+cx]
}

// Statics returns the sorted statics at offset (cx, cy). Never nil.
func (s *Sector) Statics(cx, cy int) []StaticTile {
	if st := s.statics[cy*SectorSize+cx]; len(st) > 0 {
		return st
	}
	return noStatics
}

// StaticCount returns the number of statics kept in the sector.
func (s *Sector) StaticCount() int {
	n := 0
	for _, st := range s.statics {
		n += len(st)
	}
	return n
}

func (m *Map) loadSector(sx, sy int) *Sector {
	s := &Sector{X: sx, Y: sy}

	if m.land != nil {
		m.loadLand(s)
	}
	if m.statics != nil {
		m.loadStatics(s)
	}
	return s
}

// rawLand is a terrain record as stored on disk.
type rawLand struct {
	id uint16
	z  int8
}

// readLandBlock reads the 64 terrain records of a sector straight from the
// map file, bypassing the sector cache. ok is false for sectors outside the
// map or beyond the end of the file.
func (m *Map) readLandBlock(sx, sy int) (block [sectorArea]rawLand, ok bool) {
	if m.land == nil || !m.sectorInBounds(sx, sy) {
		return block, false
	}

	offset := int64(sx*m.sectorH+sy)*landBlockSize + landHeaderSize
	data, err := m.land.Slice(offset, sectorArea*landRecordSize)
	if err != nil {
		return block, false
	}

	for i := range block {
		rec := data[i*landRecordSize:]
		block[i] = rawLand{
			id: binary.LittleEndian.Uint16(rec),
			z:  int8(rec[2]),
		}
	}
	return block, true
}

func (m *Map) loadLand(s *Sector) {
	w, ok := m.readWindow(s.X, s.Y)
	if !ok {
		m.log.Debug("land sector unreadable", zap.Int("sx", s.X), zap.Int("sy", s.Y))
		return
	}

	for cy := 0; cy < SectorSize; cy++ {
		for cx := 0; cx < SectorSize; cx++ {
			c := w.at(cx, cy)
			s.land[cy*SectorSize+cx] = LandTile{
				ID:      c.id,
				Z:       c.z,
				CornerZ: w.cornerZ(cx, cy),
				Normals: [4]math.Vec3{
					Top:    w.normal(cx, cy),
					Right:  w.normal(cx+1, cy),
					Left:   w.normal(cx, cy+1),
					Bottom: w.normal(cx+1, cy+1),
				},
			}
		}
	}
}

// staticIndex reads the (lookup, length) record for a sector.
func (m *Map) staticIndex(sx, sy int) (lookup, length int32, ok bool) {
	rec, err := m.staidx.Slice(int64(sx*m.sectorH+sy)*mul.IndexRecordSize, 8)
	if err != nil {
		return 0, 0, false
	}
	return int32(binary.LittleEndian.Uint32(rec)), int32(binary.LittleEndian.Uint32(rec[4:])), true
}

func (m *Map) loadStatics(s *Sector) {
	lookup, length, ok := m.staticIndex(s.X, s.Y)
	if !ok || lookup < 0 || length <= 0 {
		return
	}

	count := int(length) / staticRecordSize
	data, err := m.statics.Slice(int64(lookup), count*staticRecordSize)
	if err != nil {
		m.log.Warn("statics block truncated",
			zap.Int("sx", s.X), zap.Int("sy", s.Y), zap.Error(err))
		return
	}

	for i := 0; i < count; i++ {
		rec := data[i*staticRecordSize:]
		id := binary.LittleEndian.Uint16(rec)
		cx, cy := int(rec[2]), int(rec[3])
		if cx >= SectorSize || cy >= SectorSize {
			continue
		}
		if !m.drawable(id) {
			continue
		}

		cell := &s.statics[cy*SectorSize+cx]
		*cell = append(*cell, StaticTile{
			ID:  id,
			X:   int32(s.X*SectorSize + cx),
			Y:   int32(s.Y*SectorSize + cy),
			Z:   int32(int8(rec[4])),
			Hue: binary.LittleEndian.Uint16(rec[5:]),
		})
	}

	for i := range s.statics {
		if len(s.statics[i]) > 1 {
			SortStatics(s.statics[i], m.flags)
		}
	}
}

func (m *Map) drawable(id uint16) bool {
	if m.flags == nil {
		return true
	}
	flags, ok := m.flags.StaticFlags(id)
	return CanDrawStatic(id, flags, ok)
}

// CanDrawStatic reports whether a static graphic should ever be drawn.
// Graphics past the tile table, NoDraw graphics and a fixed set of invisible
// blockers are dropped.
func CanDrawStatic(id uint16, flags tiledata.Flag, known bool) bool {
	if !known || flags.Any(tiledata.NoDraw) {
		return false
	}

	switch id {
	case 0x0001, 0x21BC, 0x63D3:
		return false
	case 0x2198, 0x2199, 0x21A0, 0x21A1, 0x21A2, 0x21A3, 0x21A4:
		return false
	case 0x9E4C, 0x9E64, 0x9E65, 0x9E7D:
		return !flags.Any(tiledata.Background | tiledata.Surface | tiledata.NoDraw)
	}
	return true
}

// SortStatics orders the statics of one cell for drawing: ascending Z, then
// background before the rest, foliage after non-foliage and roofs after
// non-roofs. Remaining ties keep file order.
func SortStatics(tiles []StaticTile, flags TileFlags) {
	key := func(t StaticTile) (bg, foliage, roof int) {
		if flags == nil {
			return 1, 0, 0
		}
		f, _ := flags.StaticFlags(t.ID)
		bg = 1
		if f.Any(tiledata.Background) {
			bg = 0
		}
		if f.Any(tiledata.Foliage) {
			foliage = 1
		}
		if f.Any(tiledata.Roof) {
			roof = 1
		}
		return bg, foliage, roof
	}

	slices.SortStableFunc(tiles, func(a, b StaticTile) int {
		if c := cmp.Compare(a.Z, b.Z); c != 0 {
			return c
		}
		abg, afol, aroof := key(a)
		bbg, bfol, broof := key(b)
		if c := cmp.Compare(abg, bbg); c != 0 {
			return c
		}
		if c := cmp.Compare(afol, bfol); c != 0 {
			return c
		}
		return cmp.Compare(aroof, broof)
	})
}
