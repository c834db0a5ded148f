package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

type cell struct{ x, y int }

type fakeMap struct {
	land    map[cell]world.LandTile
	statics map[cell][]world.StaticTile
}

func newFakeMap() *fakeMap {
	return &fakeMap{land: map[cell]world.LandTile{}, statics: map[cell][]world.StaticTile{}}
}

func (m *fakeMap) LandTile(x, y int) world.LandTile { return m.land[cell{x, y}] }

func (m *fakeMap) StaticTiles(x, y int) []world.StaticTile { return m.statics[cell{x, y}] }

func (m *fakeMap) put(x, y int, ids ...uint16) {
	for _, id := range ids {
		m.statics[cell{x, y}] = append(m.statics[cell{x, y}], world.StaticTile{ID: id, X: int32(x), Y: int32(y)})
	}
}

type fakeTiles struct {
	land  map[uint16]tiledata.LandData
	items map[uint16]tiledata.ItemData
}

func (t fakeTiles) LandTile(id uint16) tiledata.LandData { return t.land[id] }

func (t fakeTiles) ItemTile(id uint16) (tiledata.ItemData, bool) {
	d, ok := t.items[id]
	return d, ok
}

// fakeTextures has a texture for every graphic except those listed as missing.
type fakeTextures struct {
	missing map[uint16]bool
}

func (t fakeTextures) LandTexture(id uint16) (LandTexture, bool) {
	if id == 0 || t.missing[id] {
		return LandTexture{}, false
	}
	return LandTexture{Region: atlas.Region{Bounds: atlas.Rect{X: int(id), W: 44, H: 44}}, Rotate: id%2 == 1}, true
}

func (t fakeTextures) StaticTexture(id uint16) (atlas.Region, bool) {
	if t.missing[id] {
		return atlas.Region{}, false
	}
	return atlas.Region{Bounds: atlas.Rect{X: int(id), W: 8, H: 8}}, true
}

func knownItems(ids ...uint16) map[uint16]tiledata.ItemData {
	items := make(map[uint16]tiledata.ItemData, len(ids))
	for _, id := range ids {
		items[id] = tiledata.ItemData{}
	}
	return items
}

func staticIDs(draws []StaticDraw) []uint16 {
	ids := make([]uint16, len(draws))
	for i, d := range draws {
		ids[i] = d.ID
	}
	return ids
}

func TestViewRange(t *testing.T) {
	v := View{
		LookAt:       math.Vec3{X: 100 * world.TileSize, Y: 50 * world.TileSize},
		Zoom:         1,
		ScreenWidth:  1280,
		ScreenHeight: 720,
	}
	assert.Equal(t, Range{MinX: 68, MinY: 18, MaxX: 137, MaxY: 87}, v.Range())

	v.Zoom = 2
	assert.Equal(t, Range{MinX: 84, MinY: 34, MaxX: 121, MaxY: 71}, v.Range())

	v.Zoom = 0
	assert.Equal(t, Range{MinX: 68, MinY: 18, MaxX: 137, MaxY: 87}, v.Range(), "zero zoom behaves as 1")

	x, y := v.Tile()
	assert.Equal(t, 100, x)
	assert.Equal(t, 50, y)
}

func TestRangeTiles(t *testing.T) {
	assert.Equal(t, 6, Range{MinX: 0, MinY: 0, MaxX: 2, MaxY: 1}.Tiles())
	assert.Equal(t, 0, Range{MinX: 3, MaxX: 2}.Tiles())
}

func TestViewAtLiftsToTerrain(t *testing.T) {
	m := newFakeMap()
	m.land[cell{10, 20}] = world.LandTile{ID: 3, Z: 5}

	v := ViewAt(DefaultConfig(), m, 10, 20)
	assert.InDelta(t, 10*world.TileSize, v.LookAt.X, 1e-3)
	assert.InDelta(t, 20*world.TileSize, v.LookAt.Y, 1e-3)
	assert.Equal(t, float32(20), v.LookAt.Z)
	assert.Equal(t, float32(1), v.Zoom)
	assert.Equal(t, 1280, v.ScreenWidth)
}

func TestAssembleBackToFront(t *testing.T) {
	m := newFakeMap()
	m.put(0, 0, 1000)
	m.put(1, 0, 1001)
	m.put(0, 1, 1010)
	m.put(1, 1, 1011, 1012, 1013)

	a := NewAssembler(m, fakeTiles{items: knownItems(1000, 1001, 1010, 1011, 1012, 1013)}, fakeTextures{}, nil)
	var f Frame
	a.AssembleRange(Range{MaxX: 1, MaxY: 1}, &f)

	assert.Equal(t, []uint16{1013, 1012, 1011, 1010, 1001, 1000}, staticIDs(f.Statics))

	// The top of a stack gets no offset, lower entries are pushed back.
	assert.Equal(t, float32(0), f.Statics[0].DepthOffset)
	assert.InDelta(t, 0.0001, f.Statics[1].DepthOffset, 1e-7)
	assert.InDelta(t, 0.0002, f.Statics[2].DepthOffset, 1e-7)
	assert.Equal(t, float32(0), f.Statics[3].DepthOffset)
}

func TestAssembleFiltersStatics(t *testing.T) {
	m := newFakeMap()
	m.put(0, 0, 0x0001, 0x21BC, 0x0500, 0x0600, 0x0700, 0x9E4C, 0x9E64)

	items := knownItems(0x0001, 0x21BC, 0x0600, 0x0700, 0x9E4C)
	items[0x0700] = tiledata.ItemData{Flags: tiledata.NoDraw}
	items[0x9E64] = tiledata.ItemData{Flags: tiledata.Surface}

	tex := fakeTextures{missing: map[uint16]bool{0x0600: true}}
	a := NewAssembler(m, fakeTiles{items: items}, tex, nil)

	var f Frame
	a.AssembleRange(Range{}, &f)

	// 0x0500 is unknown, 0x0600 has no pixels, 0x0700 is NoDraw and 0x9E64
	// is a surface.
	assert.Equal(t, []uint16{0x9E4C}, staticIDs(f.Statics))
	assert.Equal(t, 1, f.MissingTextures)
}

func TestAssembleShadowsAndHues(t *testing.T) {
	m := newFakeMap()
	m.statics[cell{0, 0}] = []world.StaticTile{
		{ID: 0x0A00, Z: 2, Hue: 0x8005},
		{ID: 3221, Z: 2},
		{ID: 4945, Z: 2, Hue: 7},
		{ID: 0x0B00, Z: 2},
	}
	items := knownItems(0x0A00, 3221, 4945)
	items[0x0B00] = tiledata.ItemData{Flags: tiledata.Foliage | tiledata.PartialHue}

	a := NewAssembler(m, fakeTiles{items: items}, fakeTextures{}, nil)
	var f Frame
	a.AssembleRange(Range{}, &f)

	require.Len(t, f.Statics, 4)
	assert.Equal(t, []uint16{0x0B00, 4945, 3221}, staticIDs(f.Shadows))

	byID := map[uint16]StaticDraw{}
	for _, d := range f.Statics {
		byID[d.ID] = d
	}
	assert.False(t, byID[0x0A00].Cylindrical)
	assert.True(t, byID[3221].Cylindrical)
	assert.Equal(t, math.Vec3{X: 5, Y: float32(HuePartial)}, byID[0x0A00].Hue)
	assert.Equal(t, math.Vec3{X: 7, Y: float32(HueFull)}, byID[4945].Hue)
	assert.Equal(t, math.Vec3{}, byID[0x0B00].Hue, "zero hue is never partial")
	assert.Equal(t, float32(8), byID[3221].Position.Z)
}

func TestAssembleLand(t *testing.T) {
	m := newFakeMap()
	slope := [4]math.Vec3{{X: 0.5, Z: 0.8}, {Z: 1}, {Z: 1}, {Z: 1}}
	m.land[cell{0, 0}] = world.LandTile{ID: 3, Z: 1, CornerZ: math.Vec4{X: 4, Y: 8, Z: 12, W: 16}, Normals: slope}
	m.land[cell{1, 0}] = world.LandTile{ID: 0xA8, Z: -5, CornerZ: math.Vec4{X: -20, Y: 0, Z: 4, W: 8}, Normals: slope}
	m.land[cell{0, 1}] = world.LandTile{ID: 0x44}

	tiles := fakeTiles{land: map[uint16]tiledata.LandData{0xA8: {Flags: tiledata.Wet}}}
	tex := fakeTextures{missing: map[uint16]bool{0x44: true}}
	a := NewAssembler(m, tiles, tex, nil)

	var f Frame
	a.AssembleRange(Range{MaxX: 1, MaxY: 1}, &f)

	// (1,1) has no data and (0,1) has no texture.
	require.Len(t, f.Land, 2)

	wet := f.Land[0]
	assert.Equal(t, 1, wet.TileX)
	assert.Equal(t, math.Vec4{X: -20, Y: -20, Z: -20, W: -20}, wet.CornerZ)
	for _, n := range wet.Normals {
		assert.Equal(t, math.UnitZ, n)
	}

	dry := f.Land[1]
	assert.Equal(t, 0, dry.TileX)
	assert.Equal(t, math.Vec4{X: 4, Y: 8, Z: 12, W: 16}, dry.CornerZ)
	assert.Equal(t, slope, dry.Normals)
	assert.True(t, dry.Texture.Rotate)
}

func TestFrameReuse(t *testing.T) {
	m := newFakeMap()
	m.put(0, 0, 0x0A00)
	m.land[cell{0, 0}] = world.LandTile{ID: 3}
	a := NewAssembler(m, fakeTiles{items: knownItems(0x0A00)}, fakeTextures{}, nil)

	var f Frame
	a.AssembleRange(Range{}, &f)
	a.AssembleRange(Range{}, &f)
	assert.Len(t, f.Statics, 1)
	assert.Len(t, f.Land, 1)

	a.Assemble(View{Zoom: 1}, &f)
	assert.Equal(t, Range{MaxX: 4, MaxY: 4}, f.Range)
}

func TestHueVector(t *testing.T) {
	tests := []struct {
		name  string
		hue   uint16
		flags tiledata.Flag
		want  math.Vec3
	}{
		{"none", 0, 0, math.Vec3{}},
		{"full", 0x21, 0, math.Vec3{X: 0x21, Y: float32(HueFull)}},
		{"bit 15", 0x8021, 0, math.Vec3{X: 0x21, Y: float32(HuePartial)}},
		{"flag", 0x21, tiledata.PartialHue, math.Vec3{X: 0x21, Y: float32(HuePartial)}},
		{"bit 15 only", 0x8000, 0, math.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HueVector(tt.hue, tt.flags))
		})
	}
}

func TestShadowCasters(t *testing.T) {
	assert.True(t, IsRock(4945))
	assert.True(t, IsRock(6005))
	assert.False(t, IsRock(6013))
	assert.True(t, IsTree(3221))
	assert.True(t, IsTree(46822))
	assert.False(t, IsTree(3223))
	assert.True(t, IsShadowCaster(1, tiledata.Foliage))
	assert.False(t, IsShadowCaster(1, tiledata.Background))
}
