package detection

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowPoints returns the pixels of a horizontal segment.
func rowPoints(y, x0, x1 int) []image.Point {
	var pts []image.Point
	for x := x0; x < x1; x++ {
		pts = append(pts, image.Point{X: x, Y: y})
	}
	return pts
}

// columnPoints returns the pixels of a vertical segment.
func columnPoints(x, y0, y1 int) []image.Point {
	var pts []image.Point
	for y := y0; y < y1; y++ {
		pts = append(pts, image.Point{X: x, Y: y})
	}
	return pts
}

func defaultHough(n int) HoughOptions {
	return HoughOptions{RhoStep: 1, Threshold: 1, MaxLines: n}
}

func TestHoughLinesEmpty(t *testing.T) {
	assert.Empty(t, HoughLines(nil, defaultHough(3)))
	assert.Empty(t, HoughLines(rowPoints(5, 0, 10), defaultHough(0)))
}

func TestHoughLinesHorizontal(t *testing.T) {
	set := HoughLines(rowPoints(50, 0, 100), defaultHough(3))
	require.Len(t, set, 3)

	top := set[0]
	assert.InDelta(t, math.Pi/2, top.Theta, 1e-9)
	assert.InDelta(t, 50, top.Rho, 1e-9)
	assert.Equal(t, 100, top.Votes)
	assert.Equal(t, set[0].Votes+set[1].Votes+set[2].Votes, set.Mass())
}

func TestHoughLinesRespectsLimits(t *testing.T) {
	pts := append(rowPoints(10, 0, 80), columnPoints(40, 0, 80)...)

	for n := 1; n <= 5; n++ {
		assert.LessOrEqual(t, len(HoughLines(pts, defaultHough(n))), n)
	}

	strict := defaultHough(5)
	strict.Threshold = 200
	assert.Empty(t, HoughLines(pts, strict), "no bin reaches the threshold")
}

func TestHoughLinesOrdersTies(t *testing.T) {
	pts := append(rowPoints(20, 0, 100), rowPoints(10, 0, 100)...)

	set := HoughLines(pts, defaultHough(2))
	require.Len(t, set, 2)
	assert.Equal(t, set[0].Votes, set[1].Votes)
	assert.InDelta(t, 10, set[0].Rho, 1e-9, "lower rho wins a tie")
	assert.InDelta(t, 20, set[1].Rho, 1e-9)
}

func TestHoughLinesThetaWindow(t *testing.T) {
	pts := append(rowPoints(10, 0, 100), columnPoints(130, 0, 60)...)

	opts := defaultHough(3)
	opts.ThetaCenter = 0
	opts.ThetaWindow = 0.1
	set := HoughLines(pts, opts)
	require.NotEmpty(t, set)
	for _, l := range set {
		d := math.Min(l.Theta, math.Pi-l.Theta)
		assert.LessOrEqual(t, d, 0.1+1e-9)
	}
	assert.InDelta(t, 0, set[0].Theta, 1e-9)
	assert.InDelta(t, 130, set[0].Rho, 1e-9)

	// The window wraps around pi.
	opts.ThetaCenter = math.Pi - 0.01
	opts.ThetaWindow = 0.05
	set = HoughLines(pts, opts)
	require.NotEmpty(t, set)
	assert.Equal(t, 60, set[0].Votes)
	assert.InDelta(t, 0, set[0].Theta, 1e-9)
}

func TestHoughLinesUsesAbsoluteCoordinates(t *testing.T) {
	near := HoughLines(rowPoints(5, 0, 40), defaultHough(1))
	far := HoughLines(rowPoints(105, 0, 40), defaultHough(1))
	require.Len(t, near, 1)
	require.Len(t, far, 1)
	assert.InDelta(t, 100, far[0].Rho-near[0].Rho, 1e-9)
}

func TestForeground(t *testing.T) {
	bin := createBinary(10, 10, image.Rect(2, 3, 4, 4))
	assert.Equal(t, []image.Point{{2, 3}, {3, 3}}, Foreground(bin))

	sub := bin.SubImage(image.Rect(3, 0, 10, 10)).(*image.Gray)
	assert.Equal(t, []image.Point{{3, 3}}, Foreground(sub))
}

func TestForegroundIn(t *testing.T) {
	bin := createBinary(10, 10, image.Rect(2, 3, 4, 4), image.Rect(8, 8, 9, 9))
	rect := rectFromAxes(1, 0, 0, 9, 2, 4)

	assert.Equal(t, []image.Point{{2, 3}, {3, 3}}, ForegroundIn(bin, rect))
	assert.Empty(t, ForegroundIn(createBinary(10, 10), rect))
}
