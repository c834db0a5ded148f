package world

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
)

type fakeFlags map[uint16]tiledata.Flag

func (f fakeFlags) StaticFlags(id uint16) (tiledata.Flag, bool) {
	if id >= 0x8000 {
		return 0, false
	}
	return f[id], true
}

// landFile builds a map file of w x h tiles where every cell has id 3 and
// the height returned by z.
func landFile(w, h int, z func(x, y int) int8) []byte {
	sw, sh := w/SectorSize, h/SectorSize
	data := make([]byte, sw*sh*landBlockSize)
	for sx := 0; sx < sw; sx++ {
		for sy := 0; sy < sh; sy++ {
			base := (sx*sh+sy)*landBlockSize + landHeaderSize
			for cy := 0; cy < SectorSize; cy++ {
				for cx := 0; cx < SectorSize; cx++ {
					rec := data[base+(cy*SectorSize+cx)*landRecordSize:]
					binary.LittleEndian.PutUint16(rec, 3)
					rec[2] = byte(z(sx*SectorSize+cx, sy*SectorSize+cy))
				}
			}
		}
	}
	return data
}

type placed struct {
	sx, sy int
	tile   StaticTile
}

// staticFiles builds staidx/statics for a map of sw x sh sectors.
func staticFiles(sw, sh int, tiles []placed) (idx, data []byte) {
	idx = make([]byte, sw*sh*mul.IndexRecordSize)
	for i := 0; i < sw*sh; i++ {
		binary.LittleEndian.PutUint32(idx[i*12:], 0xFFFFFFFF)
	}

	bySector := map[int][]StaticTile{}
	var order []int
	for _, p := range tiles {
		k := p.sx*sh + p.sy
		if _, ok := bySector[k]; !ok {
			order = append(order, k)
		}
		bySector[k] = append(bySector[k], p.tile)
	}

	for _, k := range order {
		binary.LittleEndian.PutUint32(idx[k*12:], uint32(len(data)))
		binary.LittleEndian.PutUint32(idx[k*12+4:], uint32(len(bySector[k])*staticRecordSize))
		for _, t := range bySector[k] {
			rec := make([]byte, staticRecordSize)
			binary.LittleEndian.PutUint16(rec, t.ID)
			rec[2] = byte(t.X)
			rec[3] = byte(t.Y)
			rec[4] = byte(int8(t.Z))
			binary.LittleEndian.PutUint16(rec[5:], t.Hue)
			data = append(data, rec...)
		}
	}
	return idx, data
}

func newTestMap(t *testing.T, w, h int, z func(x, y int) int8, tiles []placed, flags TileFlags) *Map {
	t.Helper()
	idx, data := staticFiles(w/SectorSize, h/SectorSize, tiles)
	m := New(Config{Width: w, Height: h},
		mul.FromBytes("map0.mul", landFile(w, h, z)),
		mul.FromBytes("staidx0.mul", idx),
		mul.FromBytes("statics0.mul", data),
		flags, nil)
	t.Cleanup(func() { m.Close() })
	return m
}

func flat(int, int) int8 { return 5 }

func TestLandTileReadsSectorLayout(t *testing.T) {
	m := newTestMap(t, 32, 16, func(x, y int) int8 { return int8(x + y) }, nil, nil)

	tile := m.LandTile(19, 10)
	assert.Equal(t, uint16(3), tile.ID)
	assert.Equal(t, int8(29), tile.Z)
	assert.Equal(t, 1, m.LoadedSectors())

	m.LandTile(16, 8)
	assert.Equal(t, 1, m.LoadedSectors(), "same sector is cached")

	m.LandTile(0, 0)
	assert.Equal(t, 2, m.LoadedSectors())
}

func TestOutOfRangeMatchesMissingFiles(t *testing.T) {
	m := newTestMap(t, 16, 16, flat, nil, nil)
	empty := New(Config{Width: 16, Height: 16}, nil, nil, nil, nil, nil)

	for _, c := range [][2]int{{-1, 0}, {0, -1}, {16, 0}, {0, 16}, {1000, 1000}} {
		assert.Equal(t, empty.LandTile(3, 3), m.LandTile(c[0], c[1]), "land %v", c)
		assert.Equal(t, empty.StaticTiles(3, 3), m.StaticTiles(c[0], c[1]), "statics %v", c)
		assert.NotNil(t, m.StaticTiles(c[0], c[1]))
	}
	assert.Same(t, empty.Sector(0, 0), empty.Sector(1, 1))
	assert.Same(t, m.Sector(-1, 0), m.Sector(5, 5))
	assert.Zero(t, m.LoadedSectors())
	assert.Zero(t, empty.LoadedSectors())
}

func TestOpenWithoutFiles(t *testing.T) {
	m, err := Open(t.TempDir(), Config{Index: 0, Width: 64, Height: 64}, nil, nil)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, LandTile{}, m.LandTile(10, 10))
	assert.Empty(t, m.StaticTiles(10, 10))
	assert.NotNil(t, m.StaticTiles(10, 10))
}

func TestOpenReadsFacetFiles(t *testing.T) {
	dir := t.TempDir()
	idx, data := staticFiles(2, 2, []placed{{1, 1, StaticTile{ID: 9, X: 2, Y: 3, Z: -4, Hue: 0x21}}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map1.mul"), landFile(16, 16, flat), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staidx1.mul"), idx, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statics1.mul"), data, 0644))

	m, err := Open(dir, Config{Index: 1, Width: 16, Height: 16}, fakeFlags{}, nil)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, int8(5), m.LandTile(15, 15).Z)
	st := m.StaticTiles(10, 11)
	require.Len(t, st, 1)
	assert.Equal(t, StaticTile{ID: 9, X: 10, Y: 11, Z: -4, Hue: 0x21}, st[0])
}

func TestStaticsSortedByZThenFlags(t *testing.T) {
	flags := fakeFlags{
		10: tiledata.Foliage,
		11: 0,
		12: tiledata.Background,
		13: tiledata.Roof,
	}
	at := func(id uint16, z int32) placed {
		return placed{0, 0, StaticTile{ID: id, X: 1, Y: 2, Z: z}}
	}
	m := newTestMap(t, 8, 8, flat, []placed{
		at(10, 5), at(11, 5), at(12, 5), at(13, 1), at(11, -2),
	}, flags)

	st := m.StaticTiles(1, 2)
	var ids []uint16
	for _, s := range st {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uint16{11, 13, 12, 11, 10}, ids)
}

func TestSortStaticsExample(t *testing.T) {
	flags := fakeFlags{1: tiledata.Foliage, 2: 0, 3: tiledata.Background, 4: tiledata.Roof}
	tiles := []StaticTile{{ID: 1, Z: 5}, {ID: 2, Z: 5}, {ID: 3, Z: 5}}
	SortStatics(tiles, flags)
	assert.Equal(t, []uint16{3, 2, 1}, []uint16{tiles[0].ID, tiles[1].ID, tiles[2].ID})

	tiles = []StaticTile{{ID: 4, Z: 0}, {ID: 2, Z: 0, Hue: 1}, {ID: 2, Z: 0, Hue: 2}}
	SortStatics(tiles, flags)
	assert.Equal(t, uint16(2), tiles[0].ID)
	assert.Equal(t, uint16(1), tiles[0].Hue, "equal keys keep file order")
	assert.Equal(t, uint16(2), tiles[1].Hue)
	assert.Equal(t, uint16(4), tiles[2].ID)
}

func TestStaticsFiltered(t *testing.T) {
	flags := fakeFlags{
		0x0100: tiledata.NoDraw,
		0x9E4C: tiledata.Surface,
		0x9E64: 0,
	}
	cell := func(id uint16) placed { return placed{0, 0, StaticTile{ID: id}} }
	m := newTestMap(t, 8, 8, flat, []placed{
		cell(0x0001), cell(0x0100), cell(0x21A2), cell(0x9E4C), cell(0x9E64), cell(0x8001), cell(0x0200),
	}, flags)

	var ids []uint16
	for _, s := range m.StaticTiles(0, 0) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uint16{0x9E64, 0x0200}, ids)
}

func TestCanDrawStatic(t *testing.T) {
	assert.True(t, CanDrawStatic(0x0200, 0, true))
	assert.False(t, CanDrawStatic(0x0200, 0, false))
	assert.False(t, CanDrawStatic(0x0200, tiledata.NoDraw, true))
	for _, id := range []uint16{0x0001, 0x21BC, 0x63D3, 0x2198, 0x2199, 0x21A0, 0x21A4} {
		assert.False(t, CanDrawStatic(id, 0, true), "0x%04X", id)
	}
	for _, id := range []uint16{0x9E4C, 0x9E64, 0x9E65, 0x9E7D} {
		assert.True(t, CanDrawStatic(id, 0, true))
		assert.False(t, CanDrawStatic(id, tiledata.Background, true))
		assert.False(t, CanDrawStatic(id, tiledata.Surface, true))
	}
}

func TestEmptyStaticIndexEntry(t *testing.T) {
	m := newTestMap(t, 16, 16, flat, []placed{{1, 0, StaticTile{ID: 7}}}, nil)
	assert.Empty(t, m.StaticTiles(0, 0))
	assert.NotNil(t, m.StaticTiles(0, 0))
	assert.Len(t, m.StaticTiles(8, 0), 1)
}

func TestTruncatedStaticsYieldEmptySector(t *testing.T) {
	idx, data := staticFiles(1, 1, []placed{{0, 0, StaticTile{ID: 7}}, {0, 0, StaticTile{ID: 8}}})
	m := New(Config{Width: 8, Height: 8},
		mul.FromBytes("map", landFile(8, 8, flat)),
		mul.FromBytes("staidx", idx),
		mul.FromBytes("statics", data[:10]),
		nil, nil)
	defer m.Close()

	assert.Empty(t, m.StaticTiles(0, 0))
	assert.Equal(t, uint16(3), m.LandTile(0, 0).ID)
}

func TestFlatGroundNormalsPointUp(t *testing.T) {
	m := newTestMap(t, 24, 24, flat, nil, nil)

	for _, c := range [][2]int{{12, 12}, {8, 8}, {15, 15}, {0, 0}, {23, 23}} {
		tile := m.LandTile(c[0], c[1])
		for i, n := range tile.Normals {
			assert.True(t, n.ApproxEqual(math.UnitZ, 1e-5), "%v corner %d = %v", c, i, n)
		}
		assert.Equal(t, math.Vec4{X: 20, Y: 20, Z: 20, W: 20}, tile.CornerZ)
	}
}

func TestSlopeNormalsCrossSectorBoundaries(t *testing.T) {
	// Height rises along x, so normals lean towards -x.
	m := newTestMap(t, 24, 24, func(x, y int) int8 { return int8(x * 2) }, nil, nil)

	tile := m.LandTile(7, 7)
	for _, n := range tile.Normals {
		assert.Less(t, n.X, float32(0))
		assert.InDelta(t, 0, n.Y, 1e-5)
		assert.Greater(t, n.Z, float32(0))
		assert.InDelta(t, 1, n.Length(), 1e-5)
	}
	assert.Equal(t, math.Vec4{X: 56, Y: 64, Z: 56, W: 64}, tile.CornerZ)
	assert.Equal(t, 1, m.LoadedSectors(), "neighbors are read without populating the cache")

	// The corner normals of the last column come from the next sector.
	assert.True(t, tile.Normals[Right].ApproxEqual(m.LandTile(8, 7).Normals[Top], 1e-6))
	assert.Equal(t, 2, m.LoadedSectors())
}

func TestMissingNeighborsSkipEdges(t *testing.T) {
	// A map edge has no neighbor data, yet the normal stays a unit vector.
	m := newTestMap(t, 8, 8, func(x, y int) int8 { return int8(y) }, nil, nil)

	n := m.LandTile(0, 0).Normals[Top]
	assert.InDelta(t, 1, n.Length(), 1e-5)

	edge := m.LandTile(7, 7)
	assert.True(t, edge.Normals[Bottom].ApproxEqual(math.UnitZ, 1e-6))
	assert.Equal(t, float32(7*TileZScale), edge.CornerZ.W, "a corner without data takes the cell height")
}

func TestWidthHeight(t *testing.T) {
	m := New(Config{Width: 7168, Height: 4096}, nil, nil, nil, nil, nil)
	assert.Equal(t, 7168, m.Width())
	assert.Equal(t, 4096, m.Height())
	w, h := m.SectorCount()
	assert.Equal(t, 896, w)
	assert.Equal(t, 512, h)
	assert.True(t, m.InBounds(7167, 4095))
	assert.False(t, m.InBounds(7168, 0))
}
