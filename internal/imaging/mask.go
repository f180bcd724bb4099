package imaging

import (
	"image"
	"image/color"
)

// Mask is a binary exclusion map with the same dimensions as a frame.
// A set pixel is excluded from line search.
type Mask struct {
	Width  int
	Height int
	bits   []bool
}

// NewMask returns an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
}

// Masked reports whether (x, y) is excluded. Out-of-range pixels are not.
func (m *Mask) Masked(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

// FillRect sets every pixel of r that falls inside the mask.
func (m *Mask) FillRect(r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.bits[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = true
		}
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Equal reports whether two masks have identical dimensions and bits.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}

// FlipV returns a copy mirrored top to bottom.
func (m *Mask) FlipV() *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		copy(out.bits[(m.Height-1-y)*m.Width:(m.Height-y)*m.Width], m.bits[y*m.Width:(y+1)*m.Width])
	}
	return out
}

// Image renders the mask as white-on-black for inspection.
func (m *Mask) Image() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.bits {
		if b {
			g.Pix[(i/m.Width)*g.Stride+i%m.Width] = 255
		}
	}
	return g
}

// ApplyToFrame zeroes every masked sample of f in place.
func (m *Mask) ApplyToFrame(f *Frame) {
	for y := 0; y < f.Height && y < m.Height; y++ {
		for x := 0; x < f.Width && x < m.Width; x++ {
			if m.bits[y*m.Width+x] {
				f.Pix[y*f.Width+x] = 0
			}
		}
	}
}

// ApplyToGray zeroes every masked pixel of g in place.
func (m *Mask) ApplyToGray(g *image.Gray) {
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.Masked(x-b.Min.X, y-b.Min.Y) {
				g.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
}
