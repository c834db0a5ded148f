// Package assets owns the loaded client data: tile metadata, hues, the art
// and texmap sources and the world map. It replaces process-wide loader
// singletons with one explicitly constructed Manager.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-uo/internal/config"
	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/pkg/art"
	"github.com/Faultbox/midgard-uo/pkg/hues"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
	"github.com/Faultbox/midgard-uo/pkg/uop"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

// Client file names.
const (
	TileDataFile = "tiledata.mul"
	HuesFile     = "hues.mul"
	ArtUOPFile   = "artLegacyMUL.uop"
	ArtFile      = "art.mul"
	ArtIndexFile = "artidx.mul"
	TexmapFile   = "texmaps.mul"
	TexIndexFile = "texidx.mul"

	// ArtUOPPattern names the art entries inside the UOP archive.
	ArtUOPPattern = "build/artlegacymul/%08d.tga"

	maxTexmapIndex = 0x4000
)

// Options locates and sizes everything Load opens.
type Options struct {
	Dir            string
	TileDataLayout tiledata.Layout
	Map            world.Config
	Atlas          atlas.Config
	// SpriteCacheBytes bounds the decoded sprite cache; 0 disables it.
	SpriteCacheBytes int64
}

// NewOptions derives Options from the configuration.
func NewOptions(cfg *config.Config) (Options, error) {
	layout, err := cfg.Data.TileDataLayout()
	if err != nil {
		return Options{}, err
	}
	ac, err := cfg.Atlas.AtlasConfig()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Dir:            cfg.Data.ClientPath,
		TileDataLayout: layout,
		Map: world.Config{
			Index:  cfg.Data.Map.Index,
			Width:  cfg.Data.Map.Width,
			Height: cfg.Data.Map.Height,
		},
		Atlas:            ac,
		SpriteCacheBytes: int64(cfg.Cache.SpriteMB) << 20,
	}, nil
}

// Manager holds the loaded client data for the process lifetime. After Load
// returns it is used from the render thread only.
type Manager struct {
	TileData *tiledata.Table
	// Hues is nil when hues.mul is missing.
	Hues *hues.Table
	Art  *art.Loader
	// Texmaps is nil when the texmap files are missing.
	Texmaps *art.TexmapLoader
	World   *world.Map
	// UOP reports an archive-based art install.
	UOP bool

	sprites *SpriteCache
	log     *zap.Logger
}

// Load opens the client data under opts.Dir. Tables load concurrently and
// are joined before Load returns. Missing tiledata or art is fatal, missing
// hues or texmaps only disables the feature.
func Load(ctx context.Context, opts Options, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sprites, err := NewSpriteCache(opts.SpriteCacheBytes)
	if err != nil {
		return nil, err
	}
	m := &Manager{sprites: sprites, log: log}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := tiledata.ParseFile(filepath.Join(opts.Dir, TileDataFile), opts.TileDataLayout)
		if err != nil {
			return err
		}
		if t.Truncated {
			log.Warn("tiledata truncated", zap.Int("items", t.ItemCount()))
		}
		m.TileData = t
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, isUOP, err := openArt(opts.Dir)
		if err != nil {
			return fmt.Errorf("art: %w", err)
		}
		m.Art = art.NewLoader(src, isUOP)
		m.UOP = isUOP
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := mul.OpenIndexed(filepath.Join(opts.Dir, TexmapFile), filepath.Join(opts.Dir, TexIndexFile), maxTexmapIndex)
		if errors.Is(err, mul.ErrNotFound) {
			log.Warn("texmaps missing, land uses art tiles", zap.Error(err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("texmaps: %w", err)
		}
		m.Texmaps = art.NewTexmapLoader(src)
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := hues.ParseFile(filepath.Join(opts.Dir, HuesFile))
		if errors.Is(err, mul.ErrNotFound) {
			log.Warn("hues missing, hueing disabled")
			return nil
		}
		if err != nil {
			return err
		}
		m.Hues = t
		return nil
	})

	if err := g.Wait(); err != nil {
		m.Close()
		return nil, err
	}

	m.World, err = world.Open(opts.Dir, opts.Map, m.TileData, log.Named("world"))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("map %d: %w", opts.Map.Index, err)
	}

	log.Info("assets loaded",
		zap.String("dir", opts.Dir),
		zap.Bool("uop", m.UOP),
		zap.Int("items", m.TileData.ItemCount()),
		zap.Bool("texmaps", m.Texmaps != nil),
		zap.Bool("hues", m.Hues != nil),
		zap.Int("width", m.World.Width()),
		zap.Int("height", m.World.Height()))
	return m, nil
}

// openArt prefers the UOP archive when it is installed.
func openArt(dir string) (mul.Source, bool, error) {
	path := filepath.Join(dir, ArtUOPFile)
	if _, err := os.Stat(path); err == nil {
		a, err := uop.Open(path, ArtUOPPattern, art.MaxStaticIndex)
		return a, true, err
	}

	src, err := mul.OpenIndexed(filepath.Join(dir, ArtFile), filepath.Join(dir, ArtIndexFile), art.MaxStaticIndex)
	if err != nil {
		return nil, false, err
	}
	return src, false, nil
}

// LandSprite returns the decoded art land tile.
func (m *Manager) LandSprite(id uint16) (*art.Sprite, error) {
	return m.sprites.getOrLoad(KindLand, uint32(id), func() (*art.Sprite, error) {
		return m.Art.Land(uint32(id))
	})
}

// StaticSprite returns the decoded static graphic.
func (m *Manager) StaticSprite(id uint16) (*art.Sprite, error) {
	return m.sprites.getOrLoad(KindStatic, uint32(id), func() (*art.Sprite, error) {
		return m.Art.Static(uint32(id))
	})
}

// TexmapSprite returns the decoded texmap for a land texture ID.
func (m *Manager) TexmapSprite(id uint16) (*art.Sprite, error) {
	if m.Texmaps == nil {
		return nil, art.ErrNoData
	}
	return m.sprites.getOrLoad(KindTexmap, uint32(id), func() (*art.Sprite, error) {
		return m.Texmaps.Texture(uint32(id))
	})
}

// HueSampler returns the pixels of the hue sampler texture, or nil without
// hues.mul. Row i holds the hues.SamplerWidth colors of hue i+1, the row a
// StaticDraw hue vector indexes.
func (m *Manager) HueSampler() []uint32 {
	if m.Hues == nil {
		return nil
	}
	dst := make([]uint32, hues.SamplerWidth*hues.SamplerHeight)
	m.Hues.ShaderColors(dst)
	return dst
}

// Sprites returns the decoded sprite cache.
func (m *Manager) Sprites() *SpriteCache {
	return m.sprites
}

// Close releases every open file.
func (m *Manager) Close() {
	if m.World != nil {
		_ = m.World.Close()
	}
	if m.Art != nil {
		_ = m.Art.Close()
	}
	if m.Texmaps != nil {
		_ = m.Texmaps.Close()
	}
	m.sprites.Close()
}
