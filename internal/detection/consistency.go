package detection

import (
	"image"
	"math"
)

// Verdict is the state of a candidate in the consistency check.
type Verdict int

const (
	Pending Verdict = iota
	Accepted
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Reason explains a rejection.
type Reason string

const (
	ReasonEmptySet        Reason = "empty_set"
	ReasonBoxSpread       Reason = "box_spread"
	ReasonEqualizedSpread Reason = "equalized_spread"
	ReasonAngle           Reason = "angle"
	ReasonOffset          Reason = "offset"
	ReasonOffFrame        Reason = "off_frame"
)

// Thresholds bound the disagreement tolerated between two line sets.
type Thresholds struct {
	// ThetaTresh is the largest angle spread allowed within one set.
	ThetaTresh float64
	// LinesetTresh is the largest difference of mean angles between sets.
	LinesetTresh float64
	// Dro is the largest difference of mean offsets between sets.
	Dro float64
}

// Decision is the outcome of Check.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Reason  Reason  `json:"reason,omitempty"`

	// Line is the vote-weighted mean line of the heavier set, with the
	// set's total votes. Set only when accepted.
	Line Line `json:"line"`

	// P1 and P2 are where Line leaves the frame, P1 leftmost.
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

func (d *Decision) reject(r Reason) Decision {
	d.Verdict, d.Reason = Rejected, r
	return *d
}

// Check decides whether the box line set a and the equalized line set b
// describe the same straight feature.
//
// # Algorithm
//
//  1. Either set empty: rejected.
//  2. Angle spread (max - min) of a, then of b, must not exceed ThetaTresh.
//  3. Mean angles must agree within LinesetTresh.
//  4. Mean offsets must agree within Dro.
//  5. The vote-weighted mean line of the set with more votes (b on a tie)
//     is clipped to frame to give the endpoints.
//
// Angles wrap at pi with the offset changing sign, so every line is first
// expressed on the same branch as the strongest line of a. Loosening any
// threshold never turns an accepted candidate into a rejected one.
func Check(a, b LineSet, th Thresholds, frame image.Rectangle) Decision {
	d := Decision{Verdict: Pending}
	if len(a) == 0 || len(b) == 0 {
		return d.reject(ReasonEmptySet)
	}

	ref := a[0].Theta
	a, b = alignSet(a, ref), alignSet(b, ref)

	if thetaSpread(a) > th.ThetaTresh {
		return d.reject(ReasonBoxSpread)
	}
	if thetaSpread(b) > th.ThetaTresh {
		return d.reject(ReasonEqualizedSpread)
	}
	if math.Abs(meanTheta(a)-meanTheta(b)) > th.LinesetTresh {
		return d.reject(ReasonAngle)
	}
	if math.Abs(meanRho(a)-meanRho(b)) > th.Dro {
		return d.reject(ReasonOffset)
	}

	heavier := b
	if a.Mass() > b.Mass() {
		heavier = a
	}
	line := weightedMean(heavier)

	p1, p2, ok := clipLine(line.Theta, line.Rho, frame)
	if !ok {
		return d.reject(ReasonOffFrame)
	}

	d.Verdict = Accepted
	d.Line = normalizeLine(line)
	d.P1, d.P2 = p1, p2
	return d
}

// alignLine re-expresses l on the branch within pi/2 of ref, using the
// identity (theta, rho) == (theta - pi, -rho).
func alignLine(l Line, ref float64) Line {
	switch d := l.Theta - ref; {
	case d > math.Pi/2:
		l.Theta -= math.Pi
		l.Rho = -l.Rho
	case d < -math.Pi/2:
		l.Theta += math.Pi
		l.Rho = -l.Rho
	}
	return l
}

func alignSet(s LineSet, ref float64) LineSet {
	out := make(LineSet, len(s))
	for i, l := range s {
		out[i] = alignLine(l, ref)
	}
	return out
}

// normalizeLine brings Theta back into [0, pi).
func normalizeLine(l Line) Line {
	for l.Theta < 0 {
		l.Theta += math.Pi
		l.Rho = -l.Rho
	}
	for l.Theta >= math.Pi {
		l.Theta -= math.Pi
		l.Rho = -l.Rho
	}
	return l
}

func thetaSpread(s LineSet) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range s {
		lo, hi = math.Min(lo, l.Theta), math.Max(hi, l.Theta)
	}
	return hi - lo
}

func meanTheta(s LineSet) float64 {
	sum := 0.0
	for _, l := range s {
		sum += l.Theta
	}
	return sum / float64(len(s))
}

func meanRho(s LineSet) float64 {
	sum := 0.0
	for _, l := range s {
		sum += l.Rho
	}
	return sum / float64(len(s))
}

func weightedMean(s LineSet) Line {
	mass := s.Mass()
	if mass == 0 {
		return Line{Theta: meanTheta(s), Rho: meanRho(s)}
	}
	var theta, rho float64
	for _, l := range s {
		w := float64(l.Votes) / float64(mass)
		theta += w * l.Theta
		rho += w * l.Rho
	}
	return Line{Theta: theta, Rho: rho, Votes: mass}
}

// clipLine intersects the line with the pixel-centre box of frame and
// returns the two most distant intersections, ordered by X then Y.
func clipLine(theta, rho float64, frame image.Rectangle) (Point, Point, bool) {
	const eps = 1e-9
	x0, y0 := float64(frame.Min.X), float64(frame.Min.Y)
	x1, y1 := float64(frame.Max.X-1), float64(frame.Max.Y-1)
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	var hits []PointF
	if math.Abs(sinT) > eps {
		for _, x := range []float64{x0, x1} {
			if y := (rho - x*cosT) / sinT; y >= y0-eps && y <= y1+eps {
				hits = append(hits, PointF{X: x, Y: y})
			}
		}
	}
	if math.Abs(cosT) > eps {
		for _, y := range []float64{y0, y1} {
			if x := (rho - y*sinT) / cosT; x >= x0-eps && x <= x1+eps {
				hits = append(hits, PointF{X: x, Y: y})
			}
		}
	}

	bestDist := -1.0
	var p, q PointF
	for i := range hits {
		for j := i + 1; j < len(hits); j++ {
			if dist := math.Hypot(hits[i].X-hits[j].X, hits[i].Y-hits[j].Y); dist > bestDist {
				bestDist, p, q = dist, hits[i], hits[j]
			}
		}
	}
	if bestDist <= 0 {
		return Point{}, Point{}, false
	}

	p1 := Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
	p2 := Point{X: int(math.Round(q.X)), Y: int(math.Round(q.Y))}
	if p2.X < p1.X || (p2.X == p1.X && p2.Y < p1.Y) {
		p1, p2 = p2, p1
	}
	return p1, p2, true
}
