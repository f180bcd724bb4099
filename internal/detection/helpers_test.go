package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/trailscan/internal/imaging"
)

// createFrame returns a frame filled with one value.
func createFrame(width, height int, background float64) *imaging.Frame {
	f := imaging.NewFrame(width, height)
	for i := range f.Pix {
		f.Pix[i] = background
	}
	return f
}

// createHorizontalTrail returns a frame with a full-width band of the given
// rows set to value.
func createHorizontalTrail(width, height, y, thickness int, value float64) *imaging.Frame {
	f := createFrame(width, height, 0)
	for t := 0; t < thickness; t++ {
		for x := 0; x < width; x++ {
			f.Set(x, y+t, value)
		}
	}
	return f
}

// createDiagonalTrail draws y = x for x in [from, to) with a vertical
// half-thickness of half pixels.
func createDiagonalTrail(width, height, from, to, half int, value float64) *imaging.Frame {
	f := createFrame(width, height, 0)
	for x := from; x < to; x++ {
		for t := -half; t <= half; t++ {
			f.Set(x, x+t, value)
		}
	}
	return f
}

// createSegment draws the segment from a to b with every pixel whose
// centre lies within 1.5 pixels of it set to value.
func createSegment(width, height int, a, b Point, value float64) *imaging.Frame {
	f := createFrame(width, height, 0)
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px, py := float64(x-a.X), float64(y-a.Y)
			t := (px*dx + py*dy) / (length * length)
			if t < 0 || t > 1 {
				continue
			}
			if math.Abs(px*dy-py*dx)/length <= 1.5 {
				f.Set(x, y, value)
			}
		}
	}
	return f
}

// createBinary returns a black gray image with the given rectangles white.
func createBinary(width, height int, fills ...image.Rectangle) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for _, r := range fills {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

// pointDist returns the distance between two points.
func pointDist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// endpointsNear reports whether {p1, p2} matches {a, b} in either order
// within tol pixels.
func endpointsNear(p1, p2, a, b Point, tol float64) bool {
	direct := pointDist(p1, a) <= tol && pointDist(p2, b) <= tol
	swapped := pointDist(p1, b) <= tol && pointDist(p2, a) <= tol
	return direct || swapped
}
