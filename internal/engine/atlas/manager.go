package atlas

import (
	"container/list"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-uo/pkg/pixel"
)

// Category groups sprites that share pages.
type Category int

// Sprite categories.
const (
	Anim Category = iota
	Art
	Gump
	Light
	Land
	numCategories
)

// Categories lists every category in order.
var Categories = [numCategories]Category{Anim, Art, Gump, Light, Land}

var categoryNames = [numCategories]string{"anim", "art", "gump", "light", "land"}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// DefaultPageSizes are the page edge lengths per category.
var DefaultPageSizes = [numCategories]int{
	Anim:  0x800,
	Art:   0x800,
	Gump:  0x1000,
	Light: 0x400,
	Land:  0x800,
}

// Page is one atlas surface and its packing state.
type Page struct {
	ID      int
	surface Surface
	packer  *Packer
	sprites int
}

// Surface returns the page's texture.
func (p *Page) Surface() Surface { return p.surface }

// Sprites returns the number of sprites packed into the page.
func (p *Page) Sprites() int { return p.sprites }

// Fill returns the packed fraction of the page area.
func (p *Page) Fill() float64 {
	return float64(p.packer.Used()) / float64(p.surface.Width()*p.surface.Height())
}

// Region locates a sprite inside a page.
type Region struct {
	Page   *Page
	Bounds Rect
}

// UV returns the normalized texture coordinates (u0, v0, u1, v1) of the
// region, inset by half a texel so sampling never bleeds into a neighbor.
func (r Region) UV() [4]float32 {
	w := float32(r.Page.surface.Width())
	h := float32(r.Page.surface.Height())
	return [4]float32{
		(float32(r.Bounds.X) + 0.5) / w,
		(float32(r.Bounds.Y) + 0.5) / h,
		(float32(r.Bounds.X+r.Bounds.W) - 0.5) / w,
		(float32(r.Bounds.Y+r.Bounds.H) - 0.5) / h,
	}
}

type category struct {
	size    int
	current *Page
	retired *list.List // most recently retired first
}

// Config sizes the manager.
type Config struct {
	// Format is the preferred page format; DetectFormat may downgrade it.
	Format    Format
	PageSizes [numCategories]int
}

// DefaultConfig returns 16-bit pages at the default sizes.
func DefaultConfig() Config {
	return Config{Format: FormatBGRA5551, PageSizes: DefaultPageSizes}
}

// Manager owns the pages of every category. Not safe for concurrent use.
type Manager struct {
	device     Device
	format     Format
	categories [numCategories]category
	upscaler   pixel.Upscaler
	nextID     int
	log        *zap.Logger
}

// NewManager probes the device for cfg.Format and returns a manager whose
// pages use the detected format.
func NewManager(device Device, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		device: device,
		format: DetectFormat(device, cfg.Format),
		log:    log,
	}
	if m.format != cfg.Format {
		log.Warn("atlas format unsupported, falling back",
			zap.Stringer("preferred", cfg.Format), zap.Stringer("format", m.format))
	}
	for i := range m.categories {
		size := cfg.PageSizes[i]
		if size <= 0 {
			size = DefaultPageSizes[i]
		}
		m.categories[i] = category{size: size, retired: list.New()}
	}
	return m
}

// Format returns the page format in use.
func (m *Manager) Format() Format {
	return m.format
}

func (m *Manager) newPage(c *category) (*Page, error) {
	s, err := m.device.NewSurface(c.size, c.size, m.format)
	if err != nil {
		return nil, fmt.Errorf("creating %dx%d atlas page: %w", c.size, c.size, err)
	}
	m.nextID++
	return &Page{ID: m.nextID, surface: s, packer: NewPacker(c.size, c.size)}, nil
}

// Add packs a 16-bit sprite into the category's open page and uploads it.
// A sprite that does not fit retires the open page and goes into a new one.
// ErrCapacityExceeded means the sprite is larger than an empty page.
func (m *Manager) Add(cat Category, pixels []uint16, width, height int) (Region, error) {
	if cat < 0 || cat >= numCategories {
		return Region{}, fmt.Errorf("unknown atlas category %d", cat)
	}
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return Region{}, fmt.Errorf("%w: %dx%d with %d pixels", ErrInvalidSprite, width, height, len(pixels))
	}
	c := &m.categories[cat]
	if width > c.size || height > c.size {
		return Region{}, fmt.Errorf("%w: %dx%d into %s pages of %d", ErrCapacityExceeded, width, height, cat, c.size)
	}

	pixels = pixels[:width*height]
	var upload func(*Page, Rect) error
	switch m.format {
	case FormatBGRA5551:
		upload = func(p *Page, r Rect) error { return p.surface.SetData16(r, pixels) }
	case FormatColor:
		wide := m.upscaler.Upscale(pixels)
		upload = func(p *Page, r Rect) error { return p.surface.SetData32(r, wide) }
	default:
		return Region{}, fmt.Errorf("%w: %s to %s", ErrUnsupportedFormat, FormatBGRA5551, m.format)
	}

	if c.current == nil {
		p, err := m.newPage(c)
		if err != nil {
			return Region{}, err
		}
		c.current = p
	}

	r, ok := c.current.packer.Pack(width, height)
	if !ok {
		c.retired.PushFront(c.current)
		m.log.Debug("atlas page retired",
			zap.Stringer("category", cat),
			zap.Int("page", c.current.ID),
			zap.Int("sprites", c.current.sprites),
			zap.Float64("fill", c.current.Fill()))

		p, err := m.newPage(c)
		if err != nil {
			c.current = nil
			return Region{}, err
		}
		c.current = p
		if r, ok = p.packer.Pack(width, height); !ok {
			return Region{}, fmt.Errorf("%w: %dx%d", ErrCapacityExceeded, width, height)
		}
	}

	if err := upload(c.current, r); err != nil {
		return Region{}, fmt.Errorf("uploading %dx%d sprite: %w", width, height, err)
	}
	c.current.sprites++
	return Region{Page: c.current, Bounds: r}, nil
}

// Current returns the open page of a category, or nil before the first Add.
func (m *Manager) Current(cat Category) *Page {
	return m.categories[cat].current
}

// Retired returns the retired pages of a category, most recent first.
func (m *Manager) Retired(cat Category) []*Page {
	l := m.categories[cat].retired
	pages := make([]*Page, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		pages = append(pages, e.Value.(*Page))
	}
	return pages
}

// PageSize returns the page edge length of a category.
func (m *Manager) PageSize(cat Category) int {
	return m.categories[cat].size
}

// PageMiB returns the size of one page of a category in whole MiB.
func (m *Manager) PageMiB(cat Category) int {
	s := m.categories[cat].size
	return s * s * m.format.BytesPerPixel() / (1 << 20)
}

// MemoryUse returns the MiB held by each category: the open page plus every
// retired page.
func (m *Manager) MemoryUse() [numCategories]int {
	var use [numCategories]int
	for i, c := range m.categories {
		use[i] = (1 + c.retired.Len()) * m.PageMiB(Category(i))
	}
	return use
}

// Release frees every page surface.
func (m *Manager) Release() {
	for i := range m.categories {
		c := &m.categories[i]
		for e := c.retired.Front(); e != nil; e = e.Next() {
			e.Value.(*Page).surface.Release()
		}
		c.retired.Init()
		if c.current != nil {
			c.current.surface.Release()
			c.current = nil
		}
	}
}
