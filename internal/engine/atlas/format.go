// Package atlas packs decoded sprites into fixed-size texture pages.
//
// Each sprite category keeps one open page. When a sprite no longer fits,
// the open page is retired and a fresh page of the same size takes its
// place. Retired pages are never repacked or freed.
package atlas

import (
	"errors"
	"fmt"
)

// Atlas errors.
var (
	ErrCapacityExceeded  = errors.New("sprite does not fit an empty atlas page")
	ErrUnsupportedFormat = errors.New("unsupported pixel format conversion")
	ErrInvalidSprite     = errors.New("invalid sprite dimensions")
)

// Format is the pixel format of a page surface.
type Format int

// Surface formats.
const (
	// FormatBGRA5551 stores the decoder's 16-bit pixels unchanged.
	FormatBGRA5551 Format = iota
	// FormatColor is 32-bit RGBA, supported by every device.
	FormatColor
)

// BytesPerPixel returns the storage size of one pixel.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatBGRA5551:
		return 2
	case FormatColor:
		return 4
	}
	return 0
}

// String returns the config name of the format.
func (f Format) String() string {
	switch f {
	case FormatBGRA5551:
		return "bgra5551"
	case FormatColor:
		return "color"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a config name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "bgra5551", "":
		return FormatBGRA5551, nil
	case "color", "rgba8888":
		return FormatColor, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// probeSize is the edge length of the surface used to test a format.
const probeSize = 64

// DetectFormat returns preferred if the device can create a surface in it,
// and FormatColor otherwise.
func DetectFormat(device Device, preferred Format) Format {
	if preferred == FormatColor {
		return FormatColor
	}
	s, err := device.NewSurface(probeSize, probeSize, preferred)
	if err != nil {
		return FormatColor
	}
	s.Release()
	return preferred
}
