package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

// staticDepthStep separates statics stacked on one cell.
const staticDepthStep = 0.0001

// MapSource is the terrain and statics query surface. *world.Map implements it.
type MapSource interface {
	LandTile(x, y int) world.LandTile
	StaticTiles(x, y int) []world.StaticTile
}

// TileData resolves tile attributes. *tiledata.Table implements it.
type TileData interface {
	LandTile(id uint16) tiledata.LandData
	ItemTile(id uint16) (tiledata.ItemData, bool)
}

// LandTexture is where a land graphic lives in the atlas. Rotate is set for
// diamond art tiles that stand in for a missing square texmap.
type LandTexture struct {
	Region atlas.Region
	Rotate bool
}

// TextureSource yields atlas regions for graphics, uploading on first use.
// ok is false when the graphic has nothing to draw.
type TextureSource interface {
	LandTexture(id uint16) (LandTexture, bool)
	StaticTexture(id uint16) (atlas.Region, bool)
}

// LandDraw is one terrain quad.
type LandDraw struct {
	TileX, TileY int
	ID           uint16
	Position     math.Vec2
	CornerZ      math.Vec4
	Normals      [4]math.Vec3
	Texture      LandTexture
}

// StaticDraw is one static billboard.
type StaticDraw struct {
	TileX, TileY int
	ID           uint16
	Position     math.Vec3
	DepthOffset  float32
	Region       atlas.Region
	Hue          math.Vec3
	// Cylindrical billboards rotate around the vertical axis only.
	Cylindrical bool
}

// Frame holds the draw lists of one frame, back to front.
type Frame struct {
	Range   Range
	Shadows []StaticDraw
	Statics []StaticDraw
	Land    []LandDraw

	// MissingTextures counts graphics skipped for lack of pixel data.
	MissingTextures int
}

// Reset empties the lists, keeping their storage.
func (f *Frame) Reset() {
	f.Range = Range{}
	f.Shadows = f.Shadows[:0]
	f.Statics = f.Statics[:0]
	f.Land = f.Land[:0]
	f.MissingTextures = 0
}

// Assembler builds frames from a map, its tile data and the texture atlas.
type Assembler struct {
	world    MapSource
	tiles    TileData
	textures TextureSource
	log      *zap.Logger
}

// NewAssembler wires the collaborators of frame assembly.
func NewAssembler(m MapSource, tiles TileData, textures TextureSource, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{world: m, tiles: tiles, textures: textures, log: log}
}

// Assemble builds the draw lists for v into f, reusing its storage.
func (a *Assembler) Assemble(v View, f *Frame) {
	a.AssembleRange(v.Range(), f)
}

// AssembleRange builds the draw lists for an explicit tile range.
func (a *Assembler) AssembleRange(r Range, f *Frame) {
	f.Reset()
	f.Range = r

	for y := r.MaxY; y >= r.MinY; y-- {
		for x := r.MaxX; x >= r.MinX; x-- {
			a.appendStatics(f, x, y)
		}
	}
	for y := r.MaxY; y >= r.MinY; y-- {
		for x := r.MaxX; x >= r.MinX; x-- {
			a.appendLand(f, x, y)
		}
	}

	a.log.Debug("frame assembled",
		zap.Int("tiles", r.Tiles()),
		zap.Int("land", len(f.Land)),
		zap.Int("statics", len(f.Statics)),
		zap.Int("shadows", len(f.Shadows)),
		zap.Int("missing", f.MissingTextures))
}

// appendStatics walks a cell's statics from the top of the stack down, so
// the depth offset grows towards the bottom.
func (a *Assembler) appendStatics(f *Frame, x, y int) {
	statics := a.world.StaticTiles(x, y)
	n := len(statics)
	for i := n - 1; i >= 0; i-- {
		s := statics[i]
		data, ok := a.tiles.ItemTile(s.ID)
		if !world.CanDrawStatic(s.ID, data.Flags, ok) {
			continue
		}

		region, ok := a.textures.StaticTexture(s.ID)
		if !ok {
			f.MissingTextures++
			continue
		}

		d := StaticDraw{
			TileX:       x,
			TileY:       y,
			ID:          s.ID,
			Position:    math.Vec3{X: float32(x) * world.TileSize, Y: float32(y) * world.TileSize, Z: float32(s.Z) * world.TileZScale},
			DepthOffset: float32(n-1-i) * staticDepthStep,
			Region:      region,
			Hue:         HueVector(s.Hue, data.Flags),
			Cylindrical: IsShadowCaster(s.ID, data.Flags),
		}
		f.Statics = append(f.Statics, d)
		if d.Cylindrical {
			f.Shadows = append(f.Shadows, d)
		}
	}
}

func (a *Assembler) appendLand(f *Frame, x, y int) {
	tile := a.world.LandTile(x, y)
	tex, ok := a.textures.LandTexture(tile.ID)
	if !ok {
		return
	}

	d := LandDraw{
		TileX:    x,
		TileY:    y,
		ID:       tile.ID,
		Position: math.Vec2{X: float32(x) * world.TileSize, Y: float32(y) * world.TileSize},
		CornerZ:  tile.CornerZ,
		Normals:  tile.Normals,
		Texture:  tex,
	}

	// Water is drawn flat.
	if a.tiles.LandTile(tile.ID).IsWet() {
		z := float32(tile.Z) * world.TileZScale
		d.CornerZ = math.Vec4{X: z, Y: z, Z: z, W: z}
		d.Normals = [4]math.Vec3{math.UnitZ, math.UnitZ, math.UnitZ, math.UnitZ}
	}
	f.Land = append(f.Land, d)
}
