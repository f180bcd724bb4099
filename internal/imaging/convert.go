package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
)

// ScaleAbs converts a frame to 8 bits as |v*alpha + beta|, rounded half to
// even and saturated to [0, 255].
func ScaleAbs(f *Frame, alpha, beta float64) *image.Gray {
	g := image.NewGray(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := math.Abs(f.Pix[y*f.Width+x]*alpha + beta)
			g.Pix[y*g.Stride+x] = saturate(v)
		}
	}
	return g
}

// Equalize spreads the intensity histogram of g over the full 8-bit range.
//
// # Algorithm
//
// The lowest populated level maps to 0 and every other level i maps to
// round(255 * cdf(i) / (N - hist[lowest])), where cdf excludes the lowest
// level. An image with a single level is returned filled with that level.
func Equalize(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(bounds)
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return out
	}

	hist := histogram.NewRGBAHistogram(g).R.Bins

	first := 0
	for first < len(hist) && hist[first] == 0 {
		first++
	}

	var lut [256]uint8
	if hist[first] == total {
		for i := range lut {
			lut[i] = uint8(first)
		}
	} else {
		scale := 255.0 / float64(total-hist[first])
		sum := 0
		for i := first + 1; i < 256; i++ {
			sum += hist[i]
			lut[i] = saturate(float64(sum) * scale)
		}
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		src := g.Pix[g.PixOffset(bounds.Min.X, y):g.PixOffset(bounds.Max.X, y)]
		dst := out.Pix[out.PixOffset(bounds.Min.X, y):out.PixOffset(bounds.Max.X, y)]
		for i, v := range src {
			dst[i] = lut[v]
		}
	}
	return out
}

func saturate(v float64) uint8 {
	if v >= 255 {
		return 255
	}
	if !(v > 0) {
		return 0
	}
	return uint8(math.RoundToEven(v))
}
