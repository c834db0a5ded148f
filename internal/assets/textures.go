package assets

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/internal/engine/scene"
	"github.com/Faultbox/midgard-uo/pkg/art"
)

// blackLandID is the void land tile, drawn solid black.
const blackLandID = 2

type landSlot struct {
	tex scene.LandTexture
	ok  bool
}

type staticSlot struct {
	region atlas.Region
	ok     bool
}

// Textures uploads land and static graphics into the atlas on first use and
// remembers where they went. Graphics that fail to decode or pack are
// remembered as missing. Not safe for concurrent use.
type Textures struct {
	assets  *Manager
	atlas   *atlas.Manager
	land    map[uint16]landSlot
	statics map[uint16]staticSlot
	log     *zap.Logger
}

// NewTextures binds the asset sources to an atlas.
func NewTextures(assets *Manager, a *atlas.Manager, log *zap.Logger) *Textures {
	if log == nil {
		log = zap.NewNop()
	}
	return &Textures{
		assets:  assets,
		atlas:   a,
		land:    make(map[uint16]landSlot),
		statics: make(map[uint16]staticSlot),
		log:     log,
	}
}

// LandTexture implements scene.TextureSource. The tile's texmap is used
// when there is one, darkened to match the art tiles. Otherwise the diamond
// art tile is used and flagged for rotation.
func (t *Textures) LandTexture(id uint16) (scene.LandTexture, bool) {
	if s, ok := t.land[id]; ok {
		return s.tex, s.ok
	}

	tex, err := t.uploadLand(id)
	if err != nil {
		t.skip("land", id, err)
		t.land[id] = landSlot{}
		return scene.LandTexture{}, false
	}
	t.land[id] = landSlot{tex: tex, ok: true}
	return tex, true
}

func (t *Textures) uploadLand(id uint16) (scene.LandTexture, error) {
	if texID := t.assets.TileData.LandTile(id).TextureID; texID != 0 {
		s, err := t.assets.TexmapSprite(texID)
		if err == nil {
			pixels := append([]uint16(nil), s.Pixels...)
			art.Darken(pixels)
			if id == blackLandID {
				art.BlackOut(pixels)
			}
			r, err := t.atlas.Add(atlas.Land, pixels, s.Width, s.Height)
			return scene.LandTexture{Region: r}, err
		}
		if !errors.Is(err, art.ErrNoData) {
			t.log.Debug("texmap unusable, falling back to art",
				zap.Uint16("land", id), zap.Uint16("texture", texID), zap.Error(err))
		}
	}

	s, err := t.assets.LandSprite(id)
	if err != nil {
		return scene.LandTexture{}, err
	}
	r, err := t.atlas.Add(atlas.Land, s.Pixels, s.Width, s.Height)
	return scene.LandTexture{Region: r, Rotate: true}, err
}

// StaticTexture implements scene.TextureSource.
func (t *Textures) StaticTexture(id uint16) (atlas.Region, bool) {
	if s, ok := t.statics[id]; ok {
		return s.region, s.ok
	}

	r, err := t.uploadStatic(id)
	if err != nil {
		t.skip("static", id, err)
		t.statics[id] = staticSlot{}
		return atlas.Region{}, false
	}
	t.statics[id] = staticSlot{region: r, ok: true}
	return r, true
}

func (t *Textures) uploadStatic(id uint16) (atlas.Region, error) {
	s, err := t.assets.StaticSprite(id)
	if err != nil {
		return atlas.Region{}, err
	}
	return t.atlas.Add(atlas.Art, s.Pixels, s.Width, s.Height)
}

// skip logs why a graphic will not be drawn. Empty entries are routine.
func (t *Textures) skip(kind string, id uint16, err error) {
	switch {
	case errors.Is(err, art.ErrNoData):
		t.log.Debug("graphic has no data", zap.String("kind", kind), zap.Uint16("id", id))
	case errors.Is(err, atlas.ErrCapacityExceeded):
		t.log.Warn("graphic does not fit the atlas", zap.String("kind", kind), zap.Uint16("id", id), zap.Error(err))
	default:
		t.log.Warn("graphic failed to decode", zap.String("kind", kind), zap.Uint16("id", id), zap.Error(err))
	}
}

// Loaded returns the number of land and static graphics resolved so far,
// including missing ones.
func (t *Textures) Loaded() (land, statics int) {
	return len(t.land), len(t.statics)
}
