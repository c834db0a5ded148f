package art

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-uo/pkg/mul"
)

// Index layout of the art file.
const (
	MaxLandIndex   = 0x4000
	MaxStaticIndex = 0x14000

	staticBase = 0x4000

	legacyGraphicMask = 0x3FFF
	uopGraphicMask    = 0xFFFF
)

// Loader decodes sprites out of an art source (art.mul/artidx.mul or
// artLegacyMUL.uop).
type Loader struct {
	src         mul.Source
	graphicMask uint32
}

// NewLoader wraps src. Legacy installs mask land graphics to 14 bits, UOP
// installs address the full 16-bit range.
func NewLoader(src mul.Source, uopInstall bool) *Loader {
	mask := uint32(legacyGraphicMask)
	if uopInstall {
		mask = uopGraphicMask
	}
	return &Loader{src: src, graphicMask: mask}
}

// StaticCount returns the number of addressable static graphics.
func (l *Loader) StaticCount() int {
	n := l.src.Count() - staticBase
	if n < 0 {
		return 0
	}
	return n
}

func (l *Loader) entryData(graphic int) ([]byte, error) {
	e, ok := l.src.Entry(graphic)
	if !ok || !e.Valid() {
		return nil, ErrNoData
	}
	data, err := l.src.Read(e)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	return data, nil
}

// DecodeLandInto decodes land graphic id into dst. See DecodeLand for the
// undersized-buffer contract.
func (l *Loader) DecodeLandInto(id uint32, dst []uint16) (width, height int, err error) {
	data, err := l.entryData(int(id & l.graphicMask))
	if err != nil {
		return 0, 0, err
	}
	return DecodeLand(data, dst)
}

// DecodeStaticInto decodes static graphic id (without the land offset) into
// dst, cleaning the border of cursor graphics.
func (l *Loader) DecodeStaticInto(id uint32, dst []uint16) (width, height int, err error) {
	data, err := l.entryData(int(id) + staticBase)
	if err != nil {
		return 0, 0, err
	}

	width, height, err = DecodeStatic(data, dst)
	if err != nil {
		return width, height, err
	}
	if IsCursorGraphic(id) {
		ClearBorder(dst, width, height)
	}
	return width, height, nil
}

// Land returns the decoded land tile for id.
func (l *Loader) Land(id uint32) (*Sprite, error) {
	s, err := twoPass(id, l.DecodeLandInto)
	if err != nil {
		return nil, fmt.Errorf("land 0x%04X: %w", id, err)
	}
	return s, nil
}

// Static returns the decoded static sprite for id.
func (l *Loader) Static(id uint32) (*Sprite, error) {
	s, err := twoPass(id, l.DecodeStaticInto)
	if err != nil {
		return nil, fmt.Errorf("static 0x%04X: %w", id, err)
	}
	return s, nil
}

// twoPass asks for the dimensions with an empty buffer, then decodes into an
// exactly sized one.
func twoPass(id uint32, decode func(uint32, []uint16) (int, int, error)) (*Sprite, error) {
	w, h, err := decode(id, nil)
	if err == nil {
		return &Sprite{Width: w, Height: h}, nil
	}
	if !errors.Is(err, ErrBufferTooSmall) {
		return nil, err
	}

	pixels := make([]uint16, w*h)
	if w, h, err = decode(id, pixels); err != nil {
		return nil, err
	}
	return &Sprite{Pixels: pixels, Width: w, Height: h}, nil
}

// Close releases the underlying source.
func (l *Loader) Close() error {
	return l.src.Close()
}

// TexmapLoader decodes land textures out of texmaps.mul/texidx.mul.
type TexmapLoader struct {
	src mul.Source
}

// NewTexmapLoader wraps a texmap source.
func NewTexmapLoader(src mul.Source) *TexmapLoader {
	return &TexmapLoader{src: src}
}

// Texture returns the texmap for a land texture ID.
func (t *TexmapLoader) Texture(id uint32) (*Sprite, error) {
	e, ok := t.src.Entry(int(id))
	if !ok || !e.Valid() {
		return nil, ErrNoData
	}
	data, err := t.src.Read(e)
	if err != nil {
		return nil, err
	}

	size, ok := TexmapSize(len(data))
	if !ok {
		return nil, fmt.Errorf("texmap 0x%04X: %w: %d bytes", id, ErrCorrupt, len(data))
	}
	pixels := make([]uint16, size*size)
	if _, _, err := DecodeTexmap(data, pixels); err != nil {
		return nil, fmt.Errorf("texmap 0x%04X: %w", id, err)
	}
	return &Sprite{Pixels: pixels, Width: size, Height: size}, nil
}

// Close releases the underlying source.
func (t *TexmapLoader) Close() error {
	return t.src.Close()
}
