// Package pixel handles the client's 16-bit ARGB1555 pixel format.
//
// Bit 15 is the opacity flag, bits 10-14, 5-9 and 0-4 hold red, green and
// blue at five bits each.
package pixel

// Opaque is the opacity bit of a 16-bit pixel.
const Opaque uint16 = 0x8000

// expand5 maps a 5-bit channel onto the 8-bit range the client was calibrated with.
var expand5 = [32]uint8{
	0x00, 0x08, 0x10, 0x18, 0x20, 0x29, 0x31, 0x39,
	0x41, 0x4A, 0x52, 0x5A, 0x62, 0x6A, 0x73, 0x7B,
	0x83, 0x8B, 0x94, 0x9C, 0xA4, 0xAC, 0xB4, 0xBD,
	0xC5, 0xCD, 0xD5, 0xDE, 0xE6, 0xEE, 0xF6, 0xFF,
}

// Expand5 returns the 8-bit value for a 5-bit channel.
func Expand5(v uint8) uint8 {
	return expand5[v&0x1F]
}

// RGB splits a 16-bit pixel into its 5-bit channels.
func RGB(c uint16) (r, g, b uint8) {
	return uint8(c>>10) & 0x1F, uint8(c>>5) & 0x1F, uint8(c) & 0x1F
}

// Pack builds an opaque 16-bit pixel from 5-bit channels.
func Pack(r, g, b uint8) uint16 {
	return Opaque | uint16(r&0x1F)<<10 | uint16(g&0x1F)<<5 | uint16(b&0x1F)
}

// Color16To32 converts the color part of a 16-bit pixel into a 32-bit value
// laid out as R | G<<8 | B<<16 with a zero alpha byte.
func Color16To32(c uint16) uint32 {
	r, g, b := RGB(c)
	return uint32(expand5[r]) | uint32(expand5[g])<<8 | uint32(expand5[b])<<16
}

// Upscaler converts 16-bit sprites to 32-bit RGBA using a reusable scratch
// buffer sized to the largest request seen. Not safe for concurrent use.
type Upscaler struct {
	buf []uint32
}

// Upscale converts src and returns a slice of len(src). Transparent pixels
// become 0, opaque ones get a full alpha byte. The result is only valid until
// the next call.
func (u *Upscaler) Upscale(src []uint16) []uint32 {
	if cap(u.buf) < len(src) {
		u.buf = make([]uint32, len(src))
	}
	out := u.buf[:len(src)]

	for i, c := range src {
		if c&Opaque != 0 {
			out[i] = Color16To32(c) | 0xFF000000
		} else {
			out[i] = 0
		}
	}
	return out
}

// Capacity returns the current scratch buffer size in pixels.
func (u *Upscaler) Capacity() int {
	return cap(u.buf)
}
