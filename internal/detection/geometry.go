package detection

import (
	"image"
	"math"
	"slices"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// PointF is a position in continuous pixel coordinates.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle is a rotated rectangle enclosing a contour.
type Rectangle struct {
	Center PointF `json:"center"`

	// Corners run around the rectangle starting from the end of the long
	// axis with the smallest projection.
	Corners [4]PointF `json:"corners"`

	Long  float64 `json:"long"`
	Short float64 `json:"short"`

	// Angle is the direction of the long side in radians, in [0, pi).
	Angle float64 `json:"angle"`
}

// Aspect returns Long/Short, or +Inf for a degenerate rectangle.
func (r Rectangle) Aspect() float64 {
	if r.Short == 0 {
		return math.Inf(1)
	}
	return r.Long / r.Short
}

// Normal returns the normal angle of the long axis, as used by Hough lines.
func (r Rectangle) Normal() float64 {
	return math.Mod(r.Angle+math.Pi/2, math.Pi)
}

// Bounds returns the smallest pixel rectangle containing every corner.
func (r Rectangle) Bounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range r.Corners {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Floor(maxX))+1, int(math.Floor(maxY))+1)
}

const rectEpsilon = 1e-6

// Contains reports whether p lies inside or on the rectangle.
func (r Rectangle) Contains(p PointF) bool {
	ux, uy := math.Cos(r.Angle), math.Sin(r.Angle)
	dx, dy := p.X-r.Center.X, p.Y-r.Center.Y
	along := dx*ux + dy*uy
	across := -dx*uy + dy*ux
	return math.Abs(along) <= r.Long/2+rectEpsilon && math.Abs(across) <= r.Short/2+rectEpsilon
}

// Pixels returns every pixel of clip whose centre lies inside the rectangle,
// in row-major order.
func (r Rectangle) Pixels(clip image.Rectangle) []image.Point {
	area := r.Bounds().Intersect(clip)
	pts := make([]image.Point, 0, area.Dx()*area.Dy())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if r.Contains(PointF{X: float64(x), Y: float64(y)}) {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// convexHull returns the hull vertices of pts counter-clockwise (in a
// y-down frame) using Andrew's monotone chain. Collinear points are dropped.
func convexHull(pts []Point) []Point {
	sorted := slices.Clone(pts)
	slices.SortFunc(sorted, func(a, b Point) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Y - b.Y
	})
	sorted = slices.Compact(sorted)
	if len(sorted) < 3 {
		return sorted
	}

	cross := func(o, a, b Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRect fits the minimum-area rectangle around pts.
//
// # Algorithm
//
// The optimal rectangle has one side collinear with a convex hull edge
// (rotating calipers), so every hull edge direction is tried and the
// smallest-area box is kept. Ties keep the first edge.
func minAreaRect(pts []Point) Rectangle {
	hull := convexHull(pts)
	switch len(hull) {
	case 0:
		return Rectangle{}
	case 1:
		c := PointF{X: float64(hull[0].X), Y: float64(hull[0].Y)}
		return Rectangle{Center: c, Corners: [4]PointF{c, c, c, c}}
	}

	var best Rectangle
	bestArea := math.Inf(1)
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		ex, ey := float64(b.X-a.X), float64(b.Y-a.Y)
		length := math.Hypot(ex, ey)
		if length == 0 {
			continue
		}
		ux, uy := ex/length, ey/length

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.X), float64(p.Y)
			pu := px*ux + py*uy
			pv := -px*uy + py*ux
			minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
			minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
		}

		w, h := maxU-minU, maxV-minV
		if area := w * h; area < bestArea-rectEpsilon {
			bestArea = area
			best = rectFromAxes(ux, uy, minU, maxU, minV, maxV)
		}
	}
	return best
}

// rectFromAxes builds a Rectangle from extents along the unit axis u and its
// perpendicular v = (-uy, ux).
func rectFromAxes(ux, uy, minU, maxU, minV, maxV float64) Rectangle {
	cu, cv := (minU+maxU)/2, (minV+maxV)/2
	w, h := maxU-minU, maxV-minV

	// Swap axes so u always runs along the long side.
	if h > w {
		ux, uy = -uy, ux
		cu, cv = cv, -cu
		w, h = h, w
	}

	center := PointF{X: cu*ux - cv*uy, Y: cu*uy + cv*ux}
	at := func(su, sv float64) PointF {
		return PointF{
			X: center.X + su*w/2*ux - sv*h/2*uy,
			Y: center.Y + su*w/2*uy + sv*h/2*ux,
		}
	}

	angle := math.Atan2(uy, ux)
	if angle < 0 {
		angle += math.Pi
	}
	if angle >= math.Pi {
		angle -= math.Pi
	}

	return Rectangle{
		Center:  center,
		Corners: [4]PointF{at(-1, -1), at(1, -1), at(1, 1), at(-1, 1)},
		Long:    w,
		Short:   h,
		Angle:   angle,
	}
}
