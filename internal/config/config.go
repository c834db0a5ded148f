// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
)

// Config holds all settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Atlas   AtlasConfig   `yaml:"atlas"`
	Render  RenderConfig  `yaml:"render"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the client installation.
type DataConfig struct {
	ClientPath string `yaml:"client_path"`
	// ClientVersion selects the tiledata record layout ("7.0.9.0" and later
	// use 64-bit flags).
	ClientVersion string    `yaml:"client_version"`
	Map           MapConfig `yaml:"map"`
}

// MapConfig selects and sizes the facet.
type MapConfig struct {
	Index  int `yaml:"index"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AtlasConfig holds texture atlas settings.
type AtlasConfig struct {
	// Format is "bgra5551" or "color"; the device may still force color.
	Format string `yaml:"format"`
	// PageSizes overrides page edge lengths per category name.
	PageSizes map[string]int `yaml:"page_sizes"`
}

// RenderConfig holds the headless view settings.
type RenderConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Zoom   float32 `yaml:"zoom"`
	StartX int     `yaml:"start_x"`
	StartY int     `yaml:"start_y"`
}

// CacheConfig bounds the decoded sprite cache.
type CacheConfig struct {
	SpriteMB int `yaml:"sprite_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			ClientPath:    ".",
			ClientVersion: "7.0.15.1",
			Map: MapConfig{
				Index:  0,
				Width:  7168,
				Height: 4096,
			},
		},
		Atlas: AtlasConfig{
			Format: atlas.FormatBGRA5551.String(),
		},
		Render: RenderConfig{
			Width:  1280,
			Height: 720,
			Zoom:   1,
			StartX: 1443,
			StartY: 1686,
		},
		Cache: CacheConfig{
			SpriteMB: 64,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TileDataLayout returns the tiledata record layout for the client version.
func (d DataConfig) TileDataLayout() (tiledata.Layout, error) {
	v, err := tiledata.ParseClientVersion(d.ClientVersion)
	if err != nil {
		return tiledata.Layout{}, err
	}
	return tiledata.LayoutFor(v), nil
}

// AtlasConfig converts the atlas section, applying page size overrides by
// category name.
func (a AtlasConfig) AtlasConfig() (atlas.Config, error) {
	cfg := atlas.DefaultConfig()

	format, err := atlas.ParseFormat(a.Format)
	if err != nil {
		return cfg, err
	}
	cfg.Format = format

	for name, size := range a.PageSizes {
		found := false
		for _, c := range atlas.Categories {
			if c.String() == name {
				cfg.PageSizes[c] = size
				found = true
			}
		}
		if !found {
			return cfg, fmt.Errorf("atlas: unknown category %q", name)
		}
	}
	return cfg, nil
}

// Validate checks values a zero or negative setting would break.
func (c *Config) Validate() error {
	if c.Data.Map.Width <= 0 || c.Data.Map.Height <= 0 {
		return fmt.Errorf("data.map: invalid size %dx%d", c.Data.Map.Width, c.Data.Map.Height)
	}
	if c.Data.Map.Index < 0 {
		return fmt.Errorf("data.map: invalid index %d", c.Data.Map.Index)
	}
	if _, err := c.Data.TileDataLayout(); err != nil {
		return fmt.Errorf("data.client_version: %w", err)
	}
	if _, err := c.Atlas.AtlasConfig(); err != nil {
		return err
	}
	for name, size := range c.Atlas.PageSizes {
		if size <= 0 {
			return fmt.Errorf("atlas.page_sizes.%s: invalid size %d", name, size)
		}
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render: invalid screen %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Zoom <= 0 {
		return fmt.Errorf("render: invalid zoom %v", c.Render.Zoom)
	}
	if c.Cache.SpriteMB < 0 {
		return fmt.Errorf("cache.sprite_mb: invalid size %d", c.Cache.SpriteMB)
	}
	return nil
}
