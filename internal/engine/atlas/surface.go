package atlas

import (
	"encoding/binary"
	"fmt"
)

// Surface is a GPU texture that page contents are uploaded to.
type Surface interface {
	Width() int
	Height() int
	Format() Format
	// SetData16 uploads FormatBGRA5551 pixels into r.
	SetData16(r Rect, pixels []uint16) error
	// SetData32 uploads FormatColor pixels into r.
	SetData32(r Rect, pixels []uint32) error
	Release()
}

// Device creates surfaces. The graphics backend implements it.
type Device interface {
	NewSurface(width, height int, format Format) (Surface, error)
}

// MemoryDevice keeps surfaces in host memory. It backs headless runs and
// tests, and can be told to reject formats to exercise the fallback path.
type MemoryDevice struct {
	Unsupported map[Format]bool

	created  int
	released int
}

// NewSurface implements Device.
func (d *MemoryDevice) NewSurface(width, height int, format Format) (Surface, error) {
	if d.Unsupported[format] || format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("%w: device cannot create %s surfaces", ErrUnsupportedFormat, format)
	}
	d.created++
	return &MemorySurface{
		device: d,
		width:  width,
		height: height,
		format: format,
		data:   make([]byte, width*height*format.BytesPerPixel()),
	}, nil
}

// Live returns the number of surfaces created and not yet released.
func (d *MemoryDevice) Live() int {
	return d.created - d.released
}

// MemorySurface is a Surface stored as a byte slice.
type MemorySurface struct {
	device *MemoryDevice
	width  int
	height int
	format Format
	data   []byte
}

// Width implements Surface.
func (s *MemorySurface) Width() int { return s.width }

// Height implements Surface.
func (s *MemorySurface) Height() int { return s.height }

// Format implements Surface.
func (s *MemorySurface) Format() Format { return s.format }

func (s *MemorySurface) check(r Rect, n int, f Format) error {
	if s.data == nil {
		return fmt.Errorf("surface released")
	}
	if f != s.format {
		return fmt.Errorf("%w: %s upload into %s surface", ErrUnsupportedFormat, f, s.format)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > s.width || r.Y+r.H > s.height {
		return fmt.Errorf("rect %+v outside %dx%d surface", r, s.width, s.height)
	}
	if n < r.W*r.H {
		return fmt.Errorf("%d pixels for a %dx%d rect", n, r.W, r.H)
	}
	return nil
}

// SetData16 implements Surface.
func (s *MemorySurface) SetData16(r Rect, pixels []uint16) error {
	if err := s.check(r, len(pixels), FormatBGRA5551); err != nil {
		return err
	}
	for y := 0; y < r.H; y++ {
		row := s.data[((r.Y+y)*s.width+r.X)*2:]
		for x := 0; x < r.W; x++ {
			binary.LittleEndian.PutUint16(row[x*2:], pixels[y*r.W+x])
		}
	}
	return nil
}

// SetData32 implements Surface.
func (s *MemorySurface) SetData32(r Rect, pixels []uint32) error {
	if err := s.check(r, len(pixels), FormatColor); err != nil {
		return err
	}
	for y := 0; y < r.H; y++ {
		row := s.data[((r.Y+y)*s.width+r.X)*4:]
		for x := 0; x < r.W; x++ {
			binary.LittleEndian.PutUint32(row[x*4:], pixels[y*r.W+x])
		}
	}
	return nil
}

// Read16 copies r back out of a FormatBGRA5551 surface.
func (s *MemorySurface) Read16(r Rect) ([]uint16, error) {
	if err := s.check(r, r.W*r.H, FormatBGRA5551); err != nil {
		return nil, err
	}
	out := make([]uint16, r.W*r.H)
	for y := 0; y < r.H; y++ {
		row := s.data[((r.Y+y)*s.width+r.X)*2:]
		for x := 0; x < r.W; x++ {
			out[y*r.W+x] = binary.LittleEndian.Uint16(row[x*2:])
		}
	}
	return out, nil
}

// Read32 copies r back out of a FormatColor surface.
func (s *MemorySurface) Read32(r Rect) ([]uint32, error) {
	if err := s.check(r, r.W*r.H, FormatColor); err != nil {
		return nil, err
	}
	out := make([]uint32, r.W*r.H)
	for y := 0; y < r.H; y++ {
		row := s.data[((r.Y+y)*s.width+r.X)*4:]
		for x := 0; x < r.W; x++ {
			out[y*r.W+x] = binary.LittleEndian.Uint32(row[x*4:])
		}
	}
	return out, nil
}

// Release implements Surface.
func (s *MemorySurface) Release() {
	if s.data == nil {
		return
	}
	s.data = nil
	s.device.released++
}
