// Package scene assembles per-frame draw lists for the map: the visible tile
// range, land quads, static billboards and shadow casters, with their hue
// and lighting parameters.
package scene

import (
	stdmath "math"

	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

// viewPadding extra rows are drawn past the far edge for tall statics.
const viewPadding = 4

// View is the camera state the draw lists are built for.
type View struct {
	// LookAt is the world-space point at the screen center.
	LookAt       math.Vec3
	Zoom         float32
	ScreenWidth  int
	ScreenHeight int
}

// Config holds the initial view settings.
type Config struct {
	ScreenWidth  int
	ScreenHeight int
	Zoom         float32
}

// DefaultConfig returns a 1280x720 view at zoom 1.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:  1280,
		ScreenHeight: 720,
		Zoom:         1,
	}
}

// ViewAt centers a view on a tile, lifted to the tile's terrain height.
func ViewAt(cfg Config, m MapSource, tileX, tileY int) View {
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return View{
		LookAt:       TileCenter(m, tileX, tileY),
		Zoom:         zoom,
		ScreenWidth:  cfg.ScreenWidth,
		ScreenHeight: cfg.ScreenHeight,
	}
}

// TileCenter returns the world-space position of a tile at its terrain height.
func TileCenter(m MapSource, tileX, tileY int) math.Vec3 {
	z := m.LandTile(tileX, tileY).Z
	return math.Vec3{
		X: float32(tileX) * world.TileSize,
		Y: float32(tileY) * world.TileSize,
		Z: float32(z) * world.TileZScale,
	}
}

// Tile returns the tile under the view center.
func (v View) Tile() (x, y int) {
	return int(v.LookAt.X / world.TileSize), int(v.LookAt.Y / world.TileSize)
}

// Range is an inclusive tile rectangle.
type Range struct {
	MinX, MinY, MaxX, MaxY int
}

// Tiles returns the number of cells in the range.
func (r Range) Tiles() int {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Range returns the tiles covered by the screen diamond around LookAt.
func (v View) Range() Range {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	diag := float64(v.ScreenWidth+v.ScreenHeight) / float64(zoom) / 2
	cx, cy := float64(v.LookAt.X), float64(v.LookAt.Y)

	return Range{
		MinX: int(stdmath.Ceil((cx - diag) / world.TileSize)),
		MinY: int(stdmath.Ceil((cy - diag) / world.TileSize)),
		MaxX: int(stdmath.Ceil((cx+diag)/world.TileSize)) + viewPadding,
		MaxY: int(stdmath.Ceil((cy+diag)/world.TileSize)) + viewPadding,
	}
}
