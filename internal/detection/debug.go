package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/trailscan/internal/imaging"
)

// DebugSink receives intermediate images for inspection.
// Implementations must be safe for concurrent use; the bright and dim
// passes of one frame report to the same sink.
type DebugSink interface {
	Snapshot(name string, img image.Image)
}

// snapshot forwards to sink when one is set. render is only called then.
func snapshot(sink DebugSink, name string, render func() image.Image) {
	if sink == nil {
		return
	}
	sink.Snapshot(name, render())
}

// drawRectangles fills every rectangle with white on a black canvas.
func drawRectangles(bounds image.Rectangle, rects []Rectangle) *image.Gray {
	canvas := image.NewGray(bounds)
	for _, r := range rects {
		for _, p := range r.Pixels(bounds) {
			canvas.SetGray(p.X, p.Y, color.Gray{Y: 255})
		}
	}
	return canvas
}

// drawLineSets renders each set's lines across base, one color per set.
func drawLineSets(base image.Image, sets []LineSet) image.Image {
	canvas := imaging.Overlay(base)
	bounds := canvas.Bounds()
	palette := imaging.Palette(len(sets))
	for i, set := range sets {
		for _, l := range set {
			if p1, p2, ok := clipLine(l.Theta, l.Rho, bounds); ok {
				imaging.DrawLine(canvas, p1.X, p1.Y, p2.X, p2.Y, palette[i])
			}
		}
	}
	return canvas
}
