package assets

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-uo/internal/config"
	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/internal/engine/scene"
	"github.com/Faultbox/midgard-uo/pkg/art"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

const (
	texturedLand = 3 // land with texmap 5
	artLand      = 4 // land without a texmap
	treeStatic   = 0x10
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func indexFile(count int, entries map[int][2]int) []byte {
	idx := make([]byte, count*mul.IndexRecordSize)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(idx[i*12:], 0xFFFFFFFF)
	}
	for id, e := range entries {
		binary.LittleEndian.PutUint32(idx[id*12:], uint32(e[0]))
		binary.LittleEndian.PutUint32(idx[id*12+4:], uint32(e[1]))
	}
	return idx
}

// tileDataFile has every land group and one item group in the new layout.
func tileDataFile() []byte {
	layout := tiledata.LayoutNew
	data := make([]byte, 512*layout.LandGroupSize()+layout.ItemGroupSize())
	const landRecord = 8 + 2 + 20
	binary.LittleEndian.PutUint16(data[4+texturedLand*landRecord+8:], 5)
	return data
}

func landArt() []byte {
	buf := make([]byte, 0, art.LandPixels)
	for i := 0; i < 1012; i++ {
		buf = binary.LittleEndian.AppendUint16(buf, 0x03E0)
	}
	return buf
}

// staticArt is a 2x2 sprite with one visible pixel per row.
func staticArt() []byte {
	words := []uint16{
		0, 0, 2, 2, // header, width, height
		0, 5, // row offsets
		0, 1, 0x7C00, 0, 0,
		1, 1, 0x001F, 0, 0,
	}
	buf := make([]byte, 0, len(words)*2)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint16(buf, w)
	}
	return buf
}

// writeClient lays out a minimal 16x16 client install.
func writeClient(t *testing.T, dir string) {
	t.Helper()

	writeFile(t, dir, TileDataFile, tileDataFile())

	land, static := landArt(), staticArt()
	writeFile(t, dir, ArtFile, append(append([]byte{}, land...), static...))
	writeFile(t, dir, ArtIndexFile, indexFile(0x4000+0x20, map[int][2]int{
		texturedLand:        {0, len(land)},
		artLand:             {0, len(land)},
		0x4000 + treeStatic: {len(land), len(static)},
	}))

	texmap := make([]byte, 64*64*2)
	for i := 0; i < 64*64; i++ {
		binary.LittleEndian.PutUint16(texmap[i*2:], 0x7FFF)
	}
	writeFile(t, dir, TexmapFile, texmap)
	writeFile(t, dir, TexIndexFile, indexFile(8, map[int][2]int{5: {0, len(texmap)}}))

	// 2x2 sectors; column 0 is textured land, the rest art land.
	mapData := make([]byte, 4*196)
	for s := 0; s < 4; s++ {
		for c := 0; c < 64; c++ {
			rec := mapData[s*196+4+c*3:]
			id := uint16(artLand)
			if s < 2 && c%8 == 0 {
				id = texturedLand
			}
			binary.LittleEndian.PutUint16(rec, id)
			rec[2] = 1
		}
	}
	writeFile(t, dir, "map0.mul", mapData)

	rec := make([]byte, 7)
	binary.LittleEndian.PutUint16(rec, treeStatic)
	rec[2], rec[3], rec[4] = 1, 1, 5
	writeFile(t, dir, "statics0.mul", rec)
	writeFile(t, dir, "staidx0.mul", indexFile(4, map[int][2]int{0: {0, 7}}))
}

func testOptions(dir string) Options {
	return Options{
		Dir:              dir,
		TileDataLayout:   tiledata.LayoutNew,
		Map:              world.Config{Width: 16, Height: 16},
		Atlas:            atlas.DefaultConfig(),
		SpriteCacheBytes: 1 << 20,
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeClient(t, dir)

	m, err := Load(context.Background(), testOptions(dir), nil)
	require.NoError(t, err)
	defer m.Close()

	assert.False(t, m.UOP)
	assert.NotNil(t, m.Texmaps)
	assert.Nil(t, m.Hues)
	assert.Nil(t, m.HueSampler())
	assert.Equal(t, 32, m.TileData.ItemCount())
	assert.Equal(t, uint16(5), m.TileData.LandTile(texturedLand).TextureID)

	assert.Equal(t, uint16(texturedLand), m.World.LandTile(0, 1).ID)
	assert.Equal(t, uint16(artLand), m.World.LandTile(1, 1).ID)
	statics := m.World.StaticTiles(1, 1)
	require.Len(t, statics, 1)
	assert.Equal(t, uint16(treeStatic), statics[0].ID)
	assert.Equal(t, int32(5), statics[0].Z)
}

func TestLoadRequiresTileDataAndArt(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), testOptions(dir), nil)
	assert.ErrorIs(t, err, mul.ErrNotFound)

	writeFile(t, dir, TileDataFile, tileDataFile())
	_, err = Load(context.Background(), testOptions(dir), nil)
	assert.ErrorIs(t, err, mul.ErrNotFound, "art is required too")
}

func TestLoadOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, TileDataFile, tileDataFile())
	writeFile(t, dir, ArtFile, landArt())
	writeFile(t, dir, ArtIndexFile, indexFile(1, map[int][2]int{0: {0, art.LandPixels}}))

	hue := make([]byte, 708)
	binary.LittleEndian.PutUint16(hue[4:], 0x7C00)
	writeFile(t, dir, HuesFile, hue)

	m, err := Load(context.Background(), testOptions(dir), nil)
	require.NoError(t, err)
	defer m.Close()

	assert.Nil(t, m.Texmaps)
	require.NotNil(t, m.Hues)
	sampler := m.HueSampler()
	assert.Len(t, sampler, 32*3000)
	assert.Equal(t, uint32(0xFF0000FF), sampler[0])

	// No map files: every query sees the empty sentinel.
	assert.Equal(t, world.LandTile{}, m.World.LandTile(3, 3))
	assert.Empty(t, m.World.StaticTiles(3, 3))
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeClient(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, testOptions(dir), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpritesAreCached(t *testing.T) {
	dir := t.TempDir()
	writeClient(t, dir)

	m, err := Load(context.Background(), testOptions(dir), nil)
	require.NoError(t, err)
	defer m.Close()

	first, err := m.StaticSprite(treeStatic)
	require.NoError(t, err)
	m.Sprites().Wait()

	second, err := m.StaticSprite(treeStatic)
	require.NoError(t, err)
	assert.Same(t, first, second)

	hits, misses := m.Sprites().Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	_, err = m.StaticSprite(treeStatic + 1)
	assert.ErrorIs(t, err, art.ErrNoData)
}

func TestSpriteCacheDisabled(t *testing.T) {
	c, err := NewSpriteCache(0)
	require.NoError(t, err)
	defer c.Close()

	c.Set(KindLand, 1, &art.Sprite{Pixels: make([]uint16, 4), Width: 2, Height: 2})
	c.Wait()
	_, ok := c.Get(KindLand, 1)
	assert.False(t, ok)

	_, misses := c.Stats()
	assert.Equal(t, int64(1), misses)
	c.Clear()
	_, misses = c.Stats()
	assert.Zero(t, misses)
}

func TestSpriteCacheSeparatesKinds(t *testing.T) {
	c, err := NewSpriteCache(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	s := &art.Sprite{Pixels: make([]uint16, 4), Width: 2, Height: 2}
	c.Set(KindLand, 7, s)
	c.Wait()

	got, ok := c.Get(KindLand, 7)
	require.True(t, ok)
	assert.Same(t, s, got)
	_, ok = c.Get(KindStatic, 7)
	assert.False(t, ok)
}

func TestTextures(t *testing.T) {
	dir := t.TempDir()
	writeClient(t, dir)

	m, err := Load(context.Background(), testOptions(dir), nil)
	require.NoError(t, err)
	defer m.Close()

	am := atlas.NewManager(&atlas.MemoryDevice{}, atlas.DefaultConfig(), nil)
	defer am.Release()
	tex := NewTextures(m, am, nil)

	// Texmap path: darkened, not rotated.
	lt, ok := tex.LandTexture(texturedLand)
	require.True(t, ok)
	assert.False(t, lt.Rotate)
	assert.Equal(t, 64, lt.Region.Bounds.W)
	px, err := lt.Region.Page.Surface().(*atlas.MemorySurface).Read16(lt.Region.Bounds)
	require.NoError(t, err)
	assert.Equal(t, pixel.Pack(26, 26, 26), px[0])

	cached, err := m.TexmapSprite(5)
	require.NoError(t, err)
	assert.Equal(t, pixel.Opaque|0x7FFF, cached.Pixels[0], "darkening must not touch the cached sprite")

	// Art path: rotated diamond.
	lt, ok = tex.LandTexture(artLand)
	require.True(t, ok)
	assert.True(t, lt.Rotate)
	assert.Equal(t, art.LandSize, lt.Region.Bounds.W)

	_, ok = tex.LandTexture(9)
	assert.False(t, ok)

	r, ok := tex.StaticTexture(treeStatic)
	require.True(t, ok)
	assert.Equal(t, 2, r.Bounds.W)
	again, ok := tex.StaticTexture(treeStatic)
	require.True(t, ok)
	assert.Equal(t, r, again)
	assert.Equal(t, 1, am.Current(atlas.Art).Sprites())

	_, ok = tex.StaticTexture(treeStatic + 1)
	assert.False(t, ok)

	land, statics := tex.Loaded()
	assert.Equal(t, 3, land)
	assert.Equal(t, 2, statics)
}

func TestFramePipeline(t *testing.T) {
	dir := t.TempDir()
	writeClient(t, dir)

	m, err := Load(context.Background(), testOptions(dir), nil)
	require.NoError(t, err)
	defer m.Close()

	am := atlas.NewManager(&atlas.MemoryDevice{}, atlas.DefaultConfig(), nil)
	defer am.Release()

	a := scene.NewAssembler(m.World, m.TileData, NewTextures(m, am, nil), nil)
	var f scene.Frame
	a.AssembleRange(scene.Range{MaxX: 1, MaxY: 1}, &f)

	require.Len(t, f.Land, 4)
	assert.Equal(t, 1, f.Land[0].TileX)
	assert.Equal(t, 1, f.Land[0].TileY)
	require.Len(t, f.Statics, 1)
	assert.Equal(t, uint16(treeStatic), f.Statics[0].ID)
	assert.Zero(t, f.MissingTextures)
}

func TestNewOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Data.ClientPath = "/uo"
	cfg.Data.ClientVersion = "6.0.0.0"
	cfg.Cache.SpriteMB = 2

	opts, err := NewOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/uo", opts.Dir)
	assert.Equal(t, tiledata.LayoutOld, opts.TileDataLayout)
	assert.Equal(t, int64(2<<20), opts.SpriteCacheBytes)
	assert.Equal(t, 7168, opts.Map.Width)

	cfg.Atlas.Format = "dxt1"
	_, err = NewOptions(cfg)
	assert.Error(t, err)
}
