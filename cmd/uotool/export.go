package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-uo/internal/assets"
	"github.com/Faultbox/midgard-uo/pkg/art"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

func sprite(m *assets.Manager, kind string, id uint16) (*art.Sprite, error) {
	switch kind {
	case "land":
		return m.LandSprite(id)
	case "static":
		return m.StaticSprite(id)
	case "texmap":
		return m.TexmapSprite(id)
	}
	return nil, fmt.Errorf("unknown graphic kind %q", kind)
}

// formatFor picks the encoder from the output file extension.
func formatFor(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".bmp":
		return "bmp", nil
	default:
		return "", fmt.Errorf("unsupported output format %q, want .png or .bmp", ext)
	}
}

// spriteImage expands a sprite to 8-bit channels. Pixels without the
// opacity bit become fully transparent.
func spriteImage(s *art.Sprite) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for i, c := range s.Pixels[:s.Width*s.Height] {
		if c&pixel.Opaque == 0 {
			continue
		}
		v := pixel.Color16To32(c)
		copy(img.Pix[i*4:], []uint8{uint8(v), uint8(v >> 8), uint8(v >> 16), 0xFF})
	}
	return img
}

// paletted reduces img to at most colors entries with a median cut palette.
func paletted(img image.Image, colors int) *image.Paletted {
	colors = min(max(colors, 2), 256)
	b := img.Bounds()

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), img))
	draw.Draw(pm, b, img, b.Min, draw.Src)
	return pm
}

func encodeImage(w io.Writer, format string, img image.Image) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unsupported output format %q", format)
}
