// Package main is the headless map viewer: it loads the client data,
// assembles frames around a start tile and reports what would be drawn.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/internal/assets"
	"github.com/Faultbox/midgard-uo/internal/config"
	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/internal/engine/debug"
	"github.com/Faultbox/midgard-uo/internal/engine/scene"
	"github.com/Faultbox/midgard-uo/internal/logger"
	"github.com/Faultbox/midgard-uo/pkg/hues"
)

var (
	flagFrames    = flag.Int("frames", 1, "Frames to assemble, panning one tile east per frame")
	flagDumpAtlas = flag.String("dump-atlas", "", "Directory to write atlas pages and the hue sampler to as PNG")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard UO Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg, *flagFrames, *flagDumpAtlas); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, frames int, dumpDir string) error {
	opts, err := assets.NewOptions(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	m, err := assets.Load(context.Background(), opts, logger.Named("assets"))
	if err != nil {
		return fmt.Errorf("loading assets: %w", err)
	}
	defer m.Close()
	logger.Info("assets ready", zap.Duration("took", time.Since(start)))

	device := &atlas.MemoryDevice{}
	am := atlas.NewManager(device, opts.Atlas, logger.Named("atlas"))
	defer am.Release()

	textures := assets.NewTextures(m, am, logger.Named("textures"))
	asm := scene.NewAssembler(m.World, m.TileData, textures, logger.Named("scene"))

	sceneCfg := scene.Config{
		ScreenWidth:  cfg.Render.Width,
		ScreenHeight: cfg.Render.Height,
		Zoom:         cfg.Render.Zoom,
	}

	var f scene.Frame
	for i := 0; i < frames; i++ {
		x, y := cfg.Render.StartX+i, cfg.Render.StartY
		v := scene.ViewAt(sceneCfg, m.World, x, y)

		t := time.Now()
		asm.Assemble(v, &f)
		logger.Info("frame",
			zap.Int("n", i),
			zap.Int("x", x),
			zap.Int("y", y),
			zap.Int("land", len(f.Land)),
			zap.Int("statics", len(f.Statics)),
			zap.Int("shadows", len(f.Shadows)),
			zap.Duration("took", time.Since(t)))
	}

	report(m, am, textures, &f)

	if dumpDir != "" {
		written, err := debug.NewPageDump(dumpDir, "atlas").All(am)
		if err != nil {
			return fmt.Errorf("dumping atlas: %w", err)
		}
		logger.Info("atlas dumped", zap.String("dir", dumpDir), zap.Int("pages", len(written)))

		if sampler := m.HueSampler(); sampler != nil {
			name, err := debug.NewPageDump(dumpDir, "atlas").Hues(sampler, hues.SamplerWidth)
			if err != nil {
				return fmt.Errorf("dumping hues: %w", err)
			}
			logger.Info("hue sampler dumped", zap.String("file", name))
		}
	}
	return nil
}

func report(m *assets.Manager, am *atlas.Manager, textures *assets.Textures, f *scene.Frame) {
	fmt.Printf("Range:    (%d,%d)-(%d,%d), %d tiles\n", f.Range.MinX, f.Range.MinY, f.Range.MaxX, f.Range.MaxY, f.Range.Tiles())
	fmt.Printf("Land:     %d quads\n", len(f.Land))
	fmt.Printf("Statics:  %d billboards, %d shadow casters, %d without pixels\n", len(f.Statics), len(f.Shadows), f.MissingTextures)

	sw, sh := m.World.SectorCount()
	fmt.Printf("Sectors:  %d of %d loaded\n", m.World.LoadedSectors(), sw*sh)

	land, statics := textures.Loaded()
	fmt.Printf("Graphics: %d land, %d statics resolved\n", land, statics)

	if m.Hues != nil {
		fmt.Printf("Hues:     %d\n", m.Hues.Len())
	}

	hits, misses := m.Sprites().Stats()
	fmt.Printf("Cache:    %d hits, %d misses\n", hits, misses)

	fmt.Printf("Atlas:    %s pages\n", am.Format())
	use := am.MemoryUse()
	for _, c := range atlas.Categories {
		fill := 0.0
		if p := am.Current(c); p != nil {
			fill = p.Fill() * 100
		}
		fmt.Printf("  %-6s %5d px, %d retired, %3d MiB, open page %.1f%% full\n",
			c, am.PageSize(c), len(am.Retired(c)), use[c], fill)
	}
}
