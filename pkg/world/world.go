// Package world provides the map sector store: lazily loaded 8x8 blocks of
// terrain and statics read from map{n}.mul, staidx{n}.mul and statics{n}.mul.
//
// A Map is not safe for concurrent use. Sectors are created on first access
// and kept for the lifetime of the Map.
package world

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
)

// Geometry of the map files.
const (
	SectorSize = 8
	sectorArea = SectorSize * SectorSize

	landRecordSize   = 3
	landHeaderSize   = 4
	landBlockSize    = landHeaderSize + sectorArea*landRecordSize // 196
	staticRecordSize = 7
)

// World-space scale used for normals, corner heights and the scene.
const (
	TileSize   = 31.11
	TileZScale = 4
)

// Corner indices into LandTile.Normals.
const (
	Top = iota
	Right
	Left
	Bottom
)

// LandTile is one terrain cell. ID 0 marks a cell with no data.
type LandTile struct {
	ID uint16
	Z  int8

	// CornerZ holds the scaled heights of the top, right, left and bottom
	// corners in X, Y, Z, W.
	CornerZ math.Vec4
	Normals [4]math.Vec3
}

// StaticTile is one static object placed on the map.
type StaticTile struct {
	ID   uint16
	X, Y int32
	Z    int32
	Hue  uint16
}

// TileFlags resolves item flags for static filtering and ordering.
// *tiledata.Table implements it.
type TileFlags interface {
	StaticFlags(id uint16) (tiledata.Flag, bool)
}

// Config locates and sizes one facet.
type Config struct {
	// Index is the facet number in the file names (map0.mul, ...).
	Index  int
	Width  int
	Height int
}

// Map is one facet of the world.
type Map struct {
	cfg     Config
	sectorW int
	sectorH int

	land    *mul.File
	staidx  *mul.File
	statics *mul.File

	flags TileFlags
	log   *zap.Logger

	sectors []*Sector
	loaded  int
	invalid *Sector
}

// Open opens the facet files under dir. Missing files are not an error: the
// map then answers every query with the shared invalid sector.
func Open(dir string, cfg Config, flags TileFlags, log *zap.Logger) (*Map, error) {
	land, err := mul.OpenOptional(filepath.Join(dir, fmt.Sprintf("map%d.mul", cfg.Index)))
	if err != nil {
		return nil, err
	}
	staidx, err := mul.OpenOptional(filepath.Join(dir, fmt.Sprintf("staidx%d.mul", cfg.Index)))
	if err != nil {
		closeAll(land)
		return nil, err
	}
	statics, err := mul.OpenOptional(filepath.Join(dir, fmt.Sprintf("statics%d.mul", cfg.Index)))
	if err != nil {
		closeAll(land, staidx)
		return nil, err
	}

	m := New(cfg, land, staidx, statics, flags, log)
	if land == nil {
		m.log.Warn("map file missing, terrain disabled", zap.Int("map", cfg.Index))
	}
	if staidx == nil || statics == nil {
		m.log.Warn("statics files missing, statics disabled", zap.Int("map", cfg.Index))
	}
	return m, nil
}

// New builds a Map over already opened files. Any file may be nil.
func New(cfg Config, land, staidx, statics *mul.File, flags TileFlags, log *zap.Logger) *Map {
	if log == nil {
		log = zap.NewNop()
	}
	if staidx == nil || statics == nil {
		closeAll(staidx, statics)
		staidx, statics = nil, nil
	}

	m := &Map{
		cfg:     cfg,
		sectorW: cfg.Width / SectorSize,
		sectorH: cfg.Height / SectorSize,
		land:    land,
		staidx:  staidx,
		statics: statics,
		flags:   flags,
		log:     log,
		invalid: newInvalidSector(),
	}
	m.sectors = make([]*Sector, m.sectorW*m.sectorH)
	return m
}

func closeAll(files ...*mul.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

// Width returns the facet width in tiles.
func (m *Map) Width() int { return m.sectorW * SectorSize }

// Height returns the facet height in tiles.
func (m *Map) Height() int { return m.sectorH * SectorSize }

// SectorCount returns the number of sectors along each axis.
func (m *Map) SectorCount() (w, h int) { return m.sectorW, m.sectorH }

// LoadedSectors returns how many sectors have been materialized.
func (m *Map) LoadedSectors() int { return m.loaded }

// InBounds reports whether a tile coordinate lies inside the facet.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width() && y < m.Height()
}

func (m *Map) sectorInBounds(sx, sy int) bool {
	return sx >= 0 && sy >= 0 && sx < m.sectorW && sy < m.sectorH
}

// Sector returns the sector at sector coordinates, loading it on first use.
// Out-of-range coordinates, or a map without any backing file, return the
// shared invalid sector.
func (m *Map) Sector(sx, sy int) *Sector {
	if !m.sectorInBounds(sx, sy) || (m.land == nil && m.statics == nil) {
		return m.invalid
	}

	i := sx*m.sectorH + sy
	if s := m.sectors[i]; s != nil {
		return s
	}

	s := m.loadSector(sx, sy)
	m.sectors[i] = s
	m.loaded++
	return s
}

// LandTile returns the terrain cell at a world coordinate.
func (m *Map) LandTile(x, y int) LandTile {
	return m.Sector(x>>3, y>>3).Land(x&7, y&7)
}

// StaticTiles returns the sorted statics at a world coordinate. The result is
// never nil and must not be modified.
func (m *Map) StaticTiles(x, y int) []StaticTile {
	return m.Sector(x>>3, y>>3).Statics(x&7, y&7)
}

// Close releases the map files.
func (m *Map) Close() error {
	var first error
	for _, f := range []*mul.File{m.land, m.staidx, m.statics} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.land, m.staidx, m.statics = nil, nil, nil
	return first
}
