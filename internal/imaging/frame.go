package imaging

import (
	"image"
	"image/color"
)

// Frame is a single-band intensity image with floating-point samples.
//
// Pix is stored row-major: the sample at (x, y) is Pix[y*Width+x].
type Frame struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// Bounds returns the frame rectangle with its origin at (0, 0).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At returns the sample at (x, y). Out-of-range coordinates read as zero.
func (f *Frame) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Set stores v at (x, y). Out-of-range coordinates are ignored.
func (f *Frame) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Pix[y*f.Width+x] = v
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]float64, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// FlipV returns a copy mirrored top to bottom.
func (f *Frame) FlipV() *Frame {
	out := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Width : (y+1)*f.Width]
		dst := out.Pix[(f.Height-1-y)*f.Width : (f.Height-y)*f.Width]
		copy(dst, src)
	}
	return out
}

// FrameFromImage converts any decoded image into a Frame.
//
// Pixels are reduced to 16-bit luminance and scaled linearly so that full
// white maps to fluxMax. The result is re-based at (0, 0).
func FrameFromImage(img image.Image, fluxMax float64) *Frame {
	bounds := img.Bounds()
	f := NewFrame(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			f.Pix[(y-bounds.Min.Y)*f.Width+(x-bounds.Min.X)] = float64(g.Y) / 65535 * fluxMax
		}
	}
	return f
}
