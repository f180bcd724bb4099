package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate replaces every pixel with the maximum over a size x size square
// centred on it. Even sizes are anchored like an odd window one larger,
// minus its last row and column.
func Dilate(g *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return cloneGray(g)
	}
	return grayFromRed(effect.Dilate(g, kernelRadius(size)))
}

// Erode replaces every pixel with the minimum over a size x size square.
func Erode(g *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return cloneGray(g)
	}
	return grayFromRed(effect.Erode(g, kernelRadius(size)))
}

// kernelRadius maps a window side length to the radius bild expects; its
// window side is int(2*radius + 1.5).
func kernelRadius(size int) float64 {
	return float64(size-1) / 2
}

func grayFromRed(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Pix[out.PixOffset(x, y)] = src.Pix[src.PixOffset(x, y)]
		}
	}
	return out
}

func cloneGray(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	copy(out.Pix, g.Pix)
	return out
}
