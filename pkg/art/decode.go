// Package art decodes Ultima Online art: 44x44 diamond land tiles, run-length
// encoded static/item sprites and square texmaps, all into 16-bit ARGB1555
// pixel buffers.
package art

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

// Art format constants.
const (
	LandSize   = 44
	LandPixels = LandSize * LandSize
	landHalf   = LandSize / 2

	// A run ending at or past this column means the stream is corrupt.
	maxRowExtent = 2048
)

// Art decoding errors.
var (
	ErrNoData         = errors.New("no art data")
	ErrBufferTooSmall = errors.New("pixel buffer too small")
	ErrCorrupt        = errors.New("corrupt art data")
)

// Sprite is a decoded ARGB1555 image.
type Sprite struct {
	Pixels []uint16
	Width  int
	Height int
}

// Bytes returns the size of the pixel data in bytes.
func (s *Sprite) Bytes() int {
	return len(s.Pixels) * 2
}

// DecodeLand decodes a diamond land tile into dst, which must hold at least
// LandPixels values. Pixels outside the diamond are zeroed. When dst is too
// small it returns the required 44x44 with ErrBufferTooSmall so the caller
// can allocate and retry.
func DecodeLand(data []byte, dst []uint16) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, ErrNoData
	}
	if len(dst) < LandPixels {
		return LandSize, LandSize, ErrBufferTooSmall
	}

	dst = dst[:LandPixels]
	clear(dst)

	r := mul.NewReader(data)

	// Top half widens by two pixels per row, bottom half narrows.
	for i := 0; i < landHalf; i++ {
		start := landHalf - (i + 1)
		if err := readRun(r, dst[i*LandSize+start:], (i+1)*2); err != nil {
			return LandSize, LandSize, fmt.Errorf("land row %d: %w", i, err)
		}
	}
	for i := landHalf; i < LandSize; i++ {
		start := i - landHalf
		if err := readRun(r, dst[i*LandSize+start:], (LandSize-i)*2); err != nil {
			return LandSize, LandSize, fmt.Errorf("land row %d: %w", i, err)
		}
	}

	return LandSize, LandSize, nil
}

func readRun(r *mul.Reader, row []uint16, n int) error {
	for j := 0; j < n; j++ {
		c, err := r.ReadU16()
		if err != nil {
			return err
		}
		row[j] = c | pixel.Opaque
	}
	return nil
}

// StaticSize reads the dimensions from a static sprite header. Sizes the
// entry cannot back with a row offset table are rejected before any caller
// allocates for them.
func StaticSize(data []byte) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, ErrNoData
	}

	r := mul.NewReader(data)
	if err := r.Skip(4); err != nil {
		return 0, 0, fmt.Errorf("%w: header", mul.ErrTruncated)
	}
	w, err := r.ReadI16()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: width", mul.ErrTruncated)
	}
	h, err := r.ReadI16()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: height", mul.ErrTruncated)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrNoData, w, h)
	}
	if w >= maxRowExtent || h >= maxRowExtent {
		return 0, 0, fmt.Errorf("%w: %dx%d sprite", ErrCorrupt, w, h)
	}
	// The header must be followed by one row offset per row.
	if r.Remaining() < int(h)*2 {
		return 0, 0, fmt.Errorf("%w: row offset table", mul.ErrTruncated)
	}
	return int(w), int(h), nil
}

// DecodeStatic decodes a run-length encoded static sprite into dst, which
// must hold at least width*height values. Transparent pixels stay zero.
// Like DecodeLand it reports the needed size with ErrBufferTooSmall.
//
// Layout after the 8-byte header: height uint16 row offsets (in 16-bit words,
// relative to the end of the offset table), then per row a sequence of
// {xOffset, run, pixels[run]} records terminated by a {0, 0} record.
func DecodeStatic(data []byte, dst []uint16) (width, height int, err error) {
	width, height, err = StaticSize(data)
	if err != nil {
		return 0, 0, err
	}
	if len(dst) < width*height {
		return width, height, ErrBufferTooSmall
	}

	dst = dst[:width*height]
	clear(dst)

	r := mul.NewReader(data)
	_ = r.Seek(8)

	offsets, err := r.ReadBytes(height * 2)
	if err != nil {
		return width, height, fmt.Errorf("%w: row offset table", mul.ErrTruncated)
	}
	dataStart := int64(r.Pos())

	rowOffset := func(y int) int64 {
		return dataStart + int64(uint16(offsets[y*2])|uint16(offsets[y*2+1])<<8)*2
	}

	if err := r.Seek(rowOffset(0)); err != nil {
		return width, height, fmt.Errorf("row 0: %w", err)
	}

	x, y := 0, 0
	for y < height {
		xOffset, err := r.ReadU16()
		if err != nil {
			return width, height, fmt.Errorf("row %d: %w", y, err)
		}
		run, err := r.ReadU16()
		if err != nil {
			return width, height, fmt.Errorf("row %d: %w", y, err)
		}

		extent := int(xOffset) + int(run)
		if extent >= maxRowExtent {
			return width, height, fmt.Errorf("%w: row %d run ends at %d", ErrCorrupt, y, extent)
		}

		if extent == 0 {
			x = 0
			y++
			if y < height {
				if err := r.Seek(rowOffset(y)); err != nil {
					return width, height, fmt.Errorf("row %d: %w", y, err)
				}
			}
			continue
		}

		x += int(xOffset)
		if x+int(run) > width {
			return width, height, fmt.Errorf("%w: row %d run [%d,+%d) exceeds width %d", ErrCorrupt, y, x, run, width)
		}

		pos := y*width + x
		for j := 0; j < int(run); j++ {
			c, err := r.ReadU16()
			if err != nil {
				return width, height, fmt.Errorf("row %d: %w", y, err)
			}
			if c != 0 {
				dst[pos+j] = c | pixel.Opaque
			}
		}
		x += int(run)
	}

	return width, height, nil
}

// IsCursorGraphic reports whether a static graphic (without the 0x4000 land
// offset) is one of the cursor sprites whose edges need cleaning.
func IsCursorGraphic(id uint32) bool {
	return (id >= 0x2053 && id <= 0x2062) || (id >= 0x206A && id <= 0x2079)
}

// ClearBorder zeroes the outermost rows and columns of a sprite.
func ClearBorder(pixels []uint16, width, height int) {
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return
	}
	for x := 0; x < width; x++ {
		pixels[x] = 0
		pixels[(height-1)*width+x] = 0
	}
	for y := 0; y < height; y++ {
		pixels[y*width] = 0
		pixels[y*width+width-1] = 0
	}
}
