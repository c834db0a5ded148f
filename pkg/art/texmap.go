package art

import (
	"fmt"

	"github.com/Faultbox/midgard-uo/pkg/mul"
	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

// Texmap sizes are implied by the entry length.
const (
	texmapSmall      = 64
	texmapLarge      = 128
	texmapSmallBytes = texmapSmall * texmapSmall * 2
	texmapLargeBytes = texmapLarge * texmapLarge * 2

	// darkenFactor matches the lighting the land art was authored under.
	darkenFactor = 0.85355339
)

// TexmapSize returns the edge length of a texmap entry of the given byte length.
func TexmapSize(length int) (int, bool) {
	switch length {
	case texmapSmallBytes:
		return texmapSmall, true
	case texmapLargeBytes:
		return texmapLarge, true
	}
	return 0, false
}

// DecodeTexmap decodes a raw square land texture. Every pixel is opaque.
func DecodeTexmap(data []byte, dst []uint16) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, ErrNoData
	}
	size, ok := TexmapSize(len(data))
	if !ok {
		return 0, 0, fmt.Errorf("%w: texmap of %d bytes", ErrCorrupt, len(data))
	}
	if len(dst) < size*size {
		return size, size, ErrBufferTooSmall
	}

	r := mul.NewReader(data)
	for i := 0; i < size*size; i++ {
		c, err := r.ReadU16()
		if err != nil {
			return size, size, err
		}
		dst[i] = c | pixel.Opaque
	}
	return size, size, nil
}

// Darken scales every channel of an opaque texture down in place.
func Darken(pixels []uint16) {
	for i, c := range pixels {
		r, g, b := pixel.RGB(c)
		pixels[i] = pixel.Pack(
			uint8(float32(r)*darkenFactor),
			uint8(float32(g)*darkenFactor),
			uint8(float32(b)*darkenFactor),
		)
	}
}

// BlackOut turns every visible pixel of a texture into opaque black.
func BlackOut(pixels []uint16) {
	for i, c := range pixels {
		if c != 0 && c != pixel.Opaque {
			pixels[i] = pixel.Opaque
		}
	}
}
