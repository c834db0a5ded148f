// uotool is a CLI utility for inspecting Ultima Online client data.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/internal/assets"
	"github.com/Faultbox/midgard-uo/internal/config"
	"github.com/Faultbox/midgard-uo/internal/logger"
	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
	"github.com/Faultbox/midgard-uo/pkg/world"
)

func main() {
	app := cli.NewApp()

	app.Name = "uotool"
	app.Usage = "Ultima Online client data utility"

	defaults := config.Default()
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "client",
			Aliases: []string{"c"},
			EnvVars: []string{"UO_CLIENT"},
			Value:   defaults.Data.ClientPath,
			Usage:   "client installation directory",
		},
		&cli.StringFlag{
			Name:  "client-version",
			Value: defaults.Data.ClientVersion,
			Usage: "client version, selects the tiledata layout",
		},
		&cli.IntFlag{
			Name:  "map",
			Value: defaults.Data.Map.Index,
			Usage: "facet index",
		},
		&cli.IntFlag{
			Name:  "width",
			Value: defaults.Data.Map.Width,
			Usage: "facet width in tiles",
		},
		&cli.IntFlag{
			Name:  "height",
			Value: defaults.Data.Map.Height,
			Usage: "facet height in tiles",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}

	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			return logger.Init("debug", "")
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		logger.Sync()
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show installation information",
			Action: cmdInfo,
		},
		{
			Name:      "tiledata",
			Usage:     "Show tile metadata",
			ArgsUsage: "land|item ID",
			Action:    cmdTileData,
		},
		{
			Name:      "export",
			Usage:     "Export a graphic as PNG or BMP",
			ArgsUsage: "ID OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kind",
					Value: "static",
					Usage: "graphic kind: land, static or texmap",
				},
				&cli.BoolFlag{
					Name:  "indexed",
					Usage: "write a paletted image",
				},
				&cli.IntFlag{
					Name:  "colors",
					Value: 256,
					Usage: "palette size for --indexed",
				},
			},
			Action: cmdExport,
		},
		{
			Name:      "sector",
			Usage:     "Dump the sector containing a tile",
			ArgsUsage: "X Y",
			Action:    cmdSector,
		},
		{
			Name:      "config",
			Usage:     "Write the default configuration",
			ArgsUsage: "[OUTPUT]",
			Action:    cmdConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func options(c *cli.Context) (assets.Options, error) {
	cfg := config.Default()
	cfg.Data.ClientPath = c.String("client")
	cfg.Data.ClientVersion = c.String("client-version")
	cfg.Data.Map = config.MapConfig{
		Index:  c.Int("map"),
		Width:  c.Int("width"),
		Height: c.Int("height"),
	}
	if err := cfg.Validate(); err != nil {
		return assets.Options{}, err
	}
	return assets.NewOptions(cfg)
}

func loadAssets(c *cli.Context) (*assets.Manager, error) {
	opts, err := options(c)
	if err != nil {
		return nil, err
	}
	return assets.Load(context.Background(), opts, logger.Named("assets"))
}

// parseID accepts decimal or 0x-prefixed hexadecimal graphic IDs.
func parseID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return uint16(v), nil
}

func cmdInfo(c *cli.Context) error {
	dir := c.String("client")
	fmt.Printf("Client:  %s\n", dir)
	fmt.Println()
	fmt.Println("Files:")
	for _, name := range []string{
		assets.TileDataFile, assets.HuesFile,
		assets.ArtUOPFile, assets.ArtFile, assets.ArtIndexFile,
		assets.TexmapFile, assets.TexIndexFile,
		fmt.Sprintf("map%d.mul", c.Int("map")),
		fmt.Sprintf("staidx%d.mul", c.Int("map")),
		fmt.Sprintf("statics%d.mul", c.Int("map")),
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			fmt.Printf("  %-18s missing\n", name)
			continue
		}
		fmt.Printf("  %-18s %.2f MB\n", name, float64(info.Size())/(1024*1024))
	}

	m, err := loadAssets(c)
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Println()
	install := "legacy MUL"
	if m.UOP {
		install = "UOP"
	}
	fmt.Printf("Install:  %s\n", install)
	fmt.Printf("Tiledata: %s layout, %d items", m.TileData.Layout, m.TileData.ItemCount())
	if m.TileData.Truncated {
		fmt.Print(" (truncated)")
	}
	fmt.Println()
	fmt.Printf("Statics:  %d addressable\n", m.Art.StaticCount())
	if m.Hues != nil {
		fmt.Printf("Hues:     %d\n", m.Hues.Len())
	}
	sw, sh := m.World.SectorCount()
	fmt.Printf("Map %d:    %dx%d tiles, %dx%d sectors\n", c.Int("map"), m.World.Width(), m.World.Height(), sw, sh)
	return nil
}

func cmdTileData(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	id, err := parseID(c.Args().Get(1))
	if err != nil {
		return err
	}

	opts, err := options(c)
	if err != nil {
		return err
	}
	t, err := tiledata.ParseFile(filepath.Join(opts.Dir, assets.TileDataFile), opts.TileDataLayout)
	if err != nil {
		return err
	}

	switch strings.ToLower(c.Args().First()) {
	case "land":
		d := t.LandTile(id)
		fmt.Printf("Land 0x%04X %q\n", id, d.Name)
		fmt.Printf("  Flags:   %s\n", d.Flags)
		fmt.Printf("  Texture: 0x%04X\n", d.TextureID)
	case "item":
		d, ok := t.ItemTile(id)
		if !ok {
			return fmt.Errorf("item 0x%04X: beyond the %d item table", id, t.ItemCount())
		}
		fmt.Printf("Item 0x%04X %q\n", id, d.Name)
		fmt.Printf("  Flags:   %s\n", d.Flags)
		fmt.Printf("  Weight:  %d\n", d.Weight)
		fmt.Printf("  Layer:   %d\n", d.Layer)
		fmt.Printf("  Count:   %d\n", d.Count)
		fmt.Printf("  Anim:    0x%04X\n", d.AnimID)
		fmt.Printf("  Hue:     %d\n", d.Hue)
		fmt.Printf("  Light:   %d\n", d.LightIndex)
		fmt.Printf("  Height:  %d (%d effective)\n", d.Height, d.CalcHeight())
	default:
		return fmt.Errorf("unknown table %q, want land or item", c.Args().First())
	}
	return nil
}

func cmdExport(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	output := c.Args().Get(1)
	format, err := formatFor(output)
	if err != nil {
		return err
	}

	m, err := loadAssets(c)
	if err != nil {
		return err
	}
	defer m.Close()

	s, err := sprite(m, c.String("kind"), id)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	img := spriteImage(s)
	if c.Bool("indexed") {
		if err := encodeImage(f, format, paletted(img, c.Int("colors"))); err != nil {
			return err
		}
	} else if err := encodeImage(f, format, img); err != nil {
		return err
	}

	logger.Info("exported", zap.String("kind", c.String("kind")), zap.Uint16("id", id), zap.String("output", output))
	fmt.Printf("Exported %s 0x%04X (%dx%d) to %s\n", c.String("kind"), id, s.Width, s.Height, output)
	return f.Close()
}

func cmdSector(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	x, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid X %q", c.Args().First())
	}
	y, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid Y %q", c.Args().Get(1))
	}

	m, err := loadAssets(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if !m.World.InBounds(x, y) {
		return fmt.Errorf("tile %d,%d: %w of %dx%d map", x, y, mul.ErrOutOfBounds, m.World.Width(), m.World.Height())
	}

	sx, sy := x/world.SectorSize, y/world.SectorSize
	s := m.World.Sector(sx, sy)
	fmt.Printf("Sector %d,%d (tiles %d,%d to %d,%d), %d statics\n",
		sx, sy, sx*world.SectorSize, sy*world.SectorSize,
		sx*world.SectorSize+world.SectorSize-1, sy*world.SectorSize+world.SectorSize-1, s.StaticCount())

	fmt.Println()
	fmt.Println("Land (id/z):")
	for cy := 0; cy < world.SectorSize; cy++ {
		var row strings.Builder
		for cx := 0; cx < world.SectorSize; cx++ {
			t := s.Land(cx, cy)
			fmt.Fprintf(&row, " %04X/%-4d", t.ID, t.Z)
		}
		fmt.Println(row.String())
	}

	if s.StaticCount() == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Statics (draw order):")
	for cy := 0; cy < world.SectorSize; cy++ {
		for cx := 0; cx < world.SectorSize; cx++ {
			for _, st := range s.Statics(cx, cy) {
				name := ""
				if d, ok := m.TileData.ItemTile(st.ID); ok {
					name = d.Name
				}
				fmt.Printf("  %4d,%-4d z=%-4d 0x%04X hue=%-5d %s\n", st.X, st.Y, st.Z, st.ID, st.Hue, name)
			}
		}
	}
	return nil
}

func cmdConfig(c *cli.Context) error {
	cfg := config.Default()
	if c.NArg() == 0 {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
		return nil
	}
	if err := cfg.SaveTo(c.Args().First()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", c.Args().First())
	return nil
}
