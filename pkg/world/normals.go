package world

import (
	"github.com/Faultbox/midgard-uo/pkg/math"
)

// A sector's corner normals reach two cells past its far edge and one cell
// before its near edge, so each load reads the cells [-1, 10) on both axes.
const (
	windowMin  = -1
	windowSpan = SectorSize + 3
)

// edgePairs are the four rotations of the neighbor pair whose edge vectors
// span a face around the center cell.
var edgePairs = [4][2][2]int{
	{{1, 0}, {0, 1}},
	{{0, 1}, {-1, 0}},
	{{-1, 0}, {0, -1}},
	{{0, -1}, {1, 0}},
}

// landWindow is the raw terrain around one sector, read without touching
// the sector cache.
type landWindow struct {
	cells [windowSpan * windowSpan]rawLand
}

// readWindow gathers the window around sector (sx, sy). ok is false when the
// sector's own block cannot be read.
func (m *Map) readWindow(sx, sy int) (*landWindow, bool) {
	var blocks [3][3]*[sectorArea]rawLand
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if b, ok := m.readLandBlock(sx+dx, sy+dy); ok {
				blocks[dy+1][dx+1] = &b
			}
		}
	}
	if blocks[1][1] == nil {
		return nil, false
	}

	w := &landWindow{}
	for wy := 0; wy < windowSpan; wy++ {
		for wx := 0; wx < windowSpan; wx++ {
			lx, ly := wx+windowMin, wy+windowMin
			bx, by := sectorStep(lx), sectorStep(ly)
			b := blocks[by+1][bx+1]
			if b == nil {
				continue
			}
			cx, cy := lx-bx*SectorSize, ly-by*SectorSize
			w.cells[wy*windowSpan+wx] = b[cy*SectorSize+cx]
		}
	}
	return w, true
}

// sectorStep returns which neighboring sector a local coordinate falls in.
func sectorStep(l int) int {
	switch {
	case l < 0:
		return -1
	case l >= SectorSize:
		return 1
	}
	return 0
}

// at returns the cell at a coordinate local to the sector.
func (w *landWindow) at(x, y int) rawLand {
	return w.cells[(y-windowMin)*windowSpan+(x-windowMin)]
}

// normal is the lighting normal at local cell (x, y): the normalized sum of
// the cross products of the edge pairs around it. Pairs touching a cell
// without data are skipped. With nothing to sum the normal points up.
func (w *landWindow) normal(x, y int) math.Vec3 {
	c := w.at(x, y)

	var sum math.Vec3
	for _, p := range edgePairs {
		a := w.at(x+p[0][0], y+p[0][1])
		b := w.at(x+p[1][0], y+p[1][1])
		if a.id == 0 || b.id == 0 {
			continue
		}
		u := math.Vec3{X: float32(p[0][0]) * TileSize, Y: float32(p[0][1]) * TileSize, Z: float32(int(a.z) - int(c.z))}
		v := math.Vec3{X: float32(p[1][0]) * TileSize, Y: float32(p[1][1]) * TileSize, Z: float32(int(b.z) - int(c.z))}
		sum = sum.Add(u.Cross(v))
	}
	return sum.NormalizeOr(math.UnitZ)
}

// cornerZ returns the scaled heights of the four corners of local cell
// (x, y). A corner whose cell has no data takes the center height.
func (w *landWindow) cornerZ(x, y int) math.Vec4 {
	c := w.at(x, y)
	z := func(dx, dy int) float32 {
		n := w.at(x+dx, y+dy)
		if n.id == 0 {
			n = c
		}
		return float32(n.z) * TileZScale
	}
	return math.Vec4{
		X: z(0, 0),
		Y: z(1, 0),
		Z: z(0, 1),
		W: z(1, 1),
	}
}
