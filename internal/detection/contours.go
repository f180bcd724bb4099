package detection

import (
	"image"
	"iter"
)

// ExtractOptions control contour retrieval and rectangle filtering.
type ExtractOptions struct {
	// Mode is ContoursList (outer and hole boundaries) or ContoursExternal
	// (outer boundaries only).
	Mode string

	// Method is ContoursNone (every boundary pixel) or ContoursSimple
	// (hull vertices only).
	Method string

	// MinLen is the minimum length of both rectangle sides.
	MinLen float64

	// LwTresh is the minimum long/short side ratio.
	LwTresh float64
}

// accepts reports whether r passes the size and elongation filters.
func (o ExtractOptions) accepts(r Rectangle) bool {
	return r.Short >= o.MinLen && r.Long >= o.MinLen && r.Aspect() >= o.LwTresh
}

var (
	neighbors8 = []Point{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	neighbors4 = []Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
)

// Rectangles returns the filtered minimum-area rectangles of every contour
// in bin, where any nonzero pixel is foreground.
//
// The sequence is lazy: contours are traced only as the caller iterates,
// and each iteration starts a fresh trace. Order follows a row-major scan
// for the first pixel of each contour.
func Rectangles(bin *image.Gray, opts ExtractOptions) iter.Seq[Rectangle] {
	return func(yield func(Rectangle) bool) {
		for contour := range Contours(bin, opts.Mode, opts.Method) {
			r := minAreaRect(contour)
			if !opts.accepts(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Contours traces the boundaries of bin.
//
// Foreground components are 8-connected and holes are 4-connected. A
// component's boundary is every pixel with a 4-neighbour that is background
// or beyond the image edge, so it includes the rims of its holes. A hole
// boundary is every foreground pixel 8-adjacent to the hole. Points are in
// the coordinate space of bin.
func Contours(bin *image.Gray, mode, method string) iter.Seq[[]Point] {
	return func(yield func([]Point) bool) {
		bounds := bin.Bounds()
		width, height := bounds.Dx(), bounds.Dy()

		fg := make([]bool, width*height)
		for y := 0; y < height; y++ {
			row := bin.Pix[y*bin.Stride : y*bin.Stride+width]
			for x, v := range row {
				fg[y*width+x] = v != 0
			}
		}

		visited := make([]bool, width*height)
		if mode == ContoursList {
			markOutside(fg, visited, width, height)
		}

		stamp := make([]int, width*height)
		holes := 0

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := y*width + x
				if visited[i] {
					continue
				}

				var contour []Point
				switch {
				case fg[i]:
					component := floodFill(fg, visited, true, neighbors8, x, y, width, height)
					contour = outerBoundary(component, fg, width, height)
				case mode == ContoursList:
					holes++
					hole := floodFill(fg, visited, false, neighbors4, x, y, width, height)
					contour = holeBoundary(hole, fg, stamp, holes, width, height)
				default:
					continue
				}

				if len(contour) == 0 {
					continue
				}
				if method == ContoursSimple {
					contour = convexHull(contour)
				}
				for k := range contour {
					contour[k].X += bounds.Min.X
					contour[k].Y += bounds.Min.Y
				}
				if !yield(contour) {
					return
				}
			}
		}
	}
}

// markOutside marks every background pixel reachable from the image border.
func markOutside(fg, visited []bool, width, height int) {
	seed := func(x, y int) {
		if i := y*width + x; !fg[i] && !visited[i] {
			floodFill(fg, visited, false, neighbors4, x, y, width, height)
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components. Pixels whose fg value equals want are collected
// and marked visited.
func floodFill(fg, visited []bool, want bool, neighbors []Point, startX, startY, width, height int) []Point {
	var region []Point
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || fg[i] != want {
			continue
		}

		visited[i] = true
		region = append(region, p)

		for _, d := range neighbors {
			stack = append(stack, Point{X: p.X + d.X, Y: p.Y + d.Y})
		}
	}
	return region
}

func outerBoundary(component []Point, fg []bool, width, height int) []Point {
	boundary := make([]Point, 0, len(component))
	for _, p := range component {
		for _, d := range neighbors4 {
			x, y := p.X+d.X, p.Y+d.Y
			if x < 0 || x >= width || y < 0 || y >= height || !fg[y*width+x] {
				boundary = append(boundary, p)
				break
			}
		}
	}
	return boundary
}

// holeBoundary collects the foreground ring around hole. stamp records the
// hole id already claiming a pixel so each ring pixel is listed once.
func holeBoundary(hole []Point, fg []bool, stamp []int, id, width, height int) []Point {
	var ring []Point
	for _, p := range hole {
		for _, d := range neighbors8 {
			x, y := p.X+d.X, p.Y+d.Y
			if x < 0 || x >= width || y < 0 || y >= height {
				continue
			}
			i := y*width + x
			if fg[i] && stamp[i] != id {
				stamp[i] = id
				ring = append(ring, Point{X: x, Y: y})
			}
		}
	}
	return ring
}
