// Package debug provides debug visualization utilities.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/midgard-uo/internal/engine/atlas"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

// readback is implemented by surfaces whose pixels can be read on the host.
type readback interface {
	Read16(r atlas.Rect) ([]uint16, error)
	Read32(r atlas.Rect) ([]uint32, error)
}

// PageDump writes atlas pages and the hue sampler as PNG files.
type PageDump struct {
	outputDir string
	prefix    string
}

// NewPageDump creates a dumper writing <prefix>_<category>_<page>.png files.
func NewPageDump(outputDir, prefix string) *PageDump {
	return &PageDump{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Filename returns the path a page is written to.
func (d *PageDump) Filename(cat atlas.Category, p *atlas.Page) string {
	return filepath.Join(d.outputDir, fmt.Sprintf("%s_%s_%d.png", d.prefix, cat, p.ID))
}

// Page writes one page and returns its path.
func (d *PageDump) Page(cat atlas.Category, p *atlas.Page) (string, error) {
	img, err := PageImage(p)
	if err != nil {
		return "", err
	}
	return d.write(d.Filename(cat, p), img)
}

// Hues writes the hue sampler texture, one hue per row of width colors, to
// <prefix>_hues.png.
func (d *PageDump) Hues(sampler []uint32, width int) (string, error) {
	if width <= 0 || len(sampler) < width {
		return "", fmt.Errorf("hue sampler of %d colors is narrower than %d", len(sampler), width)
	}
	rows := len(sampler) / width
	img := image.NewNRGBA(image.Rect(0, 0, width, rows))
	for i, c := range sampler[:width*rows] {
		putRGBA(img.Pix[i*4:], c)
	}
	return d.write(filepath.Join(d.outputDir, d.prefix+"_hues.png"), img)
}

func (d *PageDump) write(filename string, img image.Image) (string, error) {
	if d.outputDir != "" {
		if err := os.MkdirAll(d.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, file.Close()
}

// All writes the open and retired pages of every category.
func (d *PageDump) All(m *atlas.Manager) ([]string, error) {
	var written []string
	for _, cat := range atlas.Categories {
		pages := m.Retired(cat)
		if p := m.Current(cat); p != nil {
			pages = append(pages, p)
		}
		for _, p := range pages {
			name, err := d.Page(cat, p)
			if err != nil {
				return written, fmt.Errorf("%s page %d: %w", cat, p.ID, err)
			}
			written = append(written, name)
		}
	}
	return written, nil
}

// PageImage reads a page back into an image. Only host-memory surfaces
// support this.
func PageImage(p *atlas.Page) (*image.NRGBA, error) {
	s := p.Surface()
	rb, ok := s.(readback)
	if !ok {
		return nil, fmt.Errorf("surface %T cannot be read back", s)
	}

	w, h := s.Width(), s.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	all := atlas.Rect{W: w, H: h}

	switch s.Format() {
	case atlas.FormatBGRA5551:
		px, err := rb.Read16(all)
		if err != nil {
			return nil, err
		}
		for i, c := range px {
			if c&pixel.Opaque != 0 {
				putRGBA(img.Pix[i*4:], pixel.Color16To32(c)|0xFF000000)
			}
		}
	case atlas.FormatColor:
		px, err := rb.Read32(all)
		if err != nil {
			return nil, err
		}
		for i, c := range px {
			putRGBA(img.Pix[i*4:], c)
		}
	default:
		return nil, fmt.Errorf("%w: %s", atlas.ErrUnsupportedFormat, s.Format())
	}
	return img, nil
}

// putRGBA stores a little-endian RGBA word.
func putRGBA(dst []uint8, c uint32) {
	dst[0] = uint8(c)
	dst[1] = uint8(c >> 8)
	dst[2] = uint8(c >> 16)
	dst[3] = uint8(c >> 24)
}
