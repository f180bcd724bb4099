package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Overlay copies img into an NRGBA canvas so colored marks can be drawn
// over it.
func Overlay(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Palette returns n visually distinct opaque colors, evenly spaced in hue.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		h := 360 * float64(i) / float64(max(n, 1))
		r, g, b := colorful.Hsv(h, 0.9, 1).RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// DrawLine draws a one-pixel segment from (x0, y0) to (x1, y1) using
// Bresenham's algorithm. Points outside dst are skipped.
func DrawLine(dst draw.Image, x0, y0, x1, y1 int, c color.Color) {
	bounds := dst.Bounds()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if (image.Point{X: x0, Y: y0}).In(bounds) {
			dst.Set(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
