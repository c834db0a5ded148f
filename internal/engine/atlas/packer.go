package atlas

// Rect is a pixel rectangle inside a page.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// segment is one horizontal run of the skyline.
type segment struct {
	x, y, w int
}

// Packer places rectangles with the skyline bottom-left heuristic: each
// rectangle goes where its top edge ends lowest, leftmost on ties.
type Packer struct {
	width, height int
	skyline       []segment
	used          int
}

// NewPacker returns a packer for an empty width x height area.
func NewPacker(width, height int) *Packer {
	p := &Packer{width: width, height: height}
	p.Reset()
	return p
}

// Reset forgets every placed rectangle.
func (p *Packer) Reset() {
	p.skyline = append(p.skyline[:0], segment{x: 0, y: 0, w: p.width})
	p.used = 0
}

// Used returns the packed area in pixels.
func (p *Packer) Used() int {
	return p.used
}

// Pack finds room for a w x h rectangle. ok is false when it does not fit.
func (p *Packer) Pack(w, h int) (r Rect, ok bool) {
	if w <= 0 || h <= 0 || w > p.width || h > p.height {
		return Rect{}, false
	}

	best, bestX, bestY := -1, 0, p.height
	for i, s := range p.skyline {
		y, fits := p.fit(i, w, h)
		if !fits {
			continue
		}
		if y < bestY || (y == bestY && s.x < bestX) {
			best, bestX, bestY = i, s.x, y
		}
	}
	if best < 0 {
		return Rect{}, false
	}

	p.place(best, segment{x: bestX, y: bestY + h, w: w})
	p.used += w * h
	return Rect{X: bestX, Y: bestY, W: w, H: h}, true
}

// fit returns the lowest y at which a w-wide rectangle can rest starting at
// segment i.
func (p *Packer) fit(i, w, h int) (int, bool) {
	x := p.skyline[i].x
	if x+w > p.width {
		return 0, false
	}

	y, left := 0, w
	for j := i; left > 0; j++ {
		y = max(y, p.skyline[j].y)
		if y+h > p.height {
			return 0, false
		}
		left -= p.skyline[j].w
	}
	return y, true
}

// place inserts the new top edge at index i and trims the segments it covers.
func (p *Packer) place(i int, top segment) {
	p.skyline = append(p.skyline, segment{})
	copy(p.skyline[i+1:], p.skyline[i:])
	p.skyline[i] = top

	end := top.x + top.w
	for j := i + 1; j < len(p.skyline); {
		s := &p.skyline[j]
		if s.x >= end {
			break
		}
		overlap := end - s.x
		if overlap < s.w {
			s.x += overlap
			s.w -= overlap
			break
		}
		p.skyline = append(p.skyline[:j], p.skyline[j+1:]...)
	}

	// Merge neighbors at the same height.
	for j := 0; j < len(p.skyline)-1; {
		if p.skyline[j].y == p.skyline[j+1].y {
			p.skyline[j].w += p.skyline[j+1].w
			p.skyline = append(p.skyline[:j+1], p.skyline[j+2:]...)
			continue
		}
		j++
	}
}
