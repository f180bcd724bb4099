package detection

import (
	"container/heap"
	"image"
	"math"
	"slices"
)

// thetaBins is the number of one-degree angle bins over [0, pi).
const thetaBins = 180

// Line is a Hough line candidate in normal form.
type Line struct {
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
	Votes int     `json:"votes"`
}

// better orders candidates by votes, then lower Theta, then lower Rho.
func (l Line) better(o Line) bool {
	if l.Votes != o.Votes {
		return l.Votes > o.Votes
	}
	if l.Theta != o.Theta {
		return l.Theta < o.Theta
	}
	return l.Rho < o.Rho
}

// LineSet holds the strongest lines of one Hough search, best first.
type LineSet []Line

// Mass returns the total votes of the set.
func (s LineSet) Mass() int {
	total := 0
	for _, l := range s {
		total += l.Votes
	}
	return total
}

// HoughOptions configure one accumulator search.
type HoughOptions struct {
	// RhoStep is the rho resolution in pixels.
	RhoStep float64

	// Threshold is the minimum number of votes for a candidate.
	Threshold int

	// MaxLines caps the size of the returned set.
	MaxLines int

	// ThetaCenter and ThetaWindow restrict the search to angles within
	// ThetaWindow of ThetaCenter, modulo pi. A zero window searches all
	// angles.
	ThetaCenter float64
	ThetaWindow float64
}

// Foreground lists every nonzero pixel of img in absolute coordinates.
func Foreground(img *image.Gray) []image.Point {
	bounds := img.Bounds()
	var pts []image.Point
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
		for i, v := range row {
			if v != 0 {
				pts = append(pts, image.Point{X: bounds.Min.X + i, Y: y})
			}
		}
	}
	return pts
}

// ForegroundIn lists the nonzero pixels of img whose centres lie inside r.
func ForegroundIn(img *image.Gray, r Rectangle) []image.Point {
	var pts []image.Point
	for _, pt := range r.Pixels(img.Bounds()) {
		if img.Pix[img.PixOffset(pt.X, pt.Y)] != 0 {
			pts = append(pts, pt)
		}
	}
	return pts
}

// HoughLines runs the standard Hough transform over pts and returns at most
// opts.MaxLines candidates with at least opts.Threshold votes.
//
// Each point votes once per searched angle, in the rho bin nearest to
// x*cos(theta) + y*sin(theta). Coordinates are used as given so results
// from different crops of the same frame are directly comparable.
//
// The function keeps no state between calls; an empty input or a search
// with no bin above threshold yields an empty set.
func HoughLines(pts []image.Point, opts HoughOptions) LineSet {
	if len(pts) == 0 || opts.MaxLines <= 0 || opts.RhoStep <= 0 {
		return nil
	}

	thetas := searchAngles(opts.ThetaCenter, opts.ThetaWindow)
	if len(thetas) == 0 {
		return nil
	}

	// |rho| <= |x| + |y| for any angle.
	maxX, maxY := 0, 0
	for _, p := range pts {
		maxX = max(maxX, abs(p.X))
		maxY = max(maxY, abs(p.Y))
	}
	offset := int(math.Ceil(float64(maxX+maxY)/opts.RhoStep)) + 1
	numRho := 2*offset + 1

	accumulator := make([]int32, len(thetas)*numRho)
	for t, k := range thetas {
		angle := float64(k) * math.Pi / thetaBins
		cosA, sinA := math.Cos(angle), math.Sin(angle)
		bins := accumulator[t*numRho : (t+1)*numRho]
		for _, p := range pts {
			rho := float64(p.X)*cosA + float64(p.Y)*sinA
			bins[int(math.RoundToEven(rho/opts.RhoStep))+offset]++
		}
	}

	threshold := int32(max(opts.Threshold, 1))
	top := &lineHeap{}
	for t, k := range thetas {
		angle := float64(k) * math.Pi / thetaBins
		bins := accumulator[t*numRho : (t+1)*numRho]
		for r, votes := range bins {
			if votes < threshold {
				continue
			}
			l := Line{Theta: angle, Rho: float64(r-offset) * opts.RhoStep, Votes: int(votes)}
			switch {
			case top.Len() < opts.MaxLines:
				heap.Push(top, l)
			case l.better((*top)[0]):
				(*top)[0] = l
				heap.Fix(top, 0)
			}
		}
	}

	set := LineSet(*top)
	slices.SortFunc(set, func(a, b Line) int {
		if a.better(b) {
			return -1
		}
		if b.better(a) {
			return 1
		}
		return 0
	})
	return set
}

// searchAngles returns the angle bin indices within window of center,
// measuring distance modulo pi.
func searchAngles(center, window float64) []int {
	bins := make([]int, 0, thetaBins)
	for k := 0; k < thetaBins; k++ {
		if window > 0 {
			d := math.Mod(math.Abs(float64(k)*math.Pi/thetaBins-center), math.Pi)
			if math.Min(d, math.Pi-d) > window+1e-12 {
				continue
			}
		}
		bins = append(bins, k)
	}
	return bins
}

// lineHeap keeps the weakest retained candidate at the root.
type lineHeap []Line

func (h lineHeap) Len() int           { return len(h) }
func (h lineHeap) Less(i, j int) bool { return h[j].better(h[i]) }
func (h lineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *lineHeap) Push(x any)        { *h = append(*h, x.(Line)) }
func (h *lineHeap) Pop() any {
	old := *h
	n := len(old)
	l := old[n-1]
	*h = old[:n-1]
	return l
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
