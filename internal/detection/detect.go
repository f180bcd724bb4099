package detection

import (
	"context"
	"image"
	"math"
	"slices"
	"strings"

	"github.com/ironsheep/trailscan/internal/imaging"
)

// Pass names a morphology variant.
type Pass string

const (
	PassBright Pass = "bright"
	PassDim    Pass = "dim"
)

// Detection is an accepted trail.
type Detection struct {
	// P1 and P2 are where the trail line crosses the frame edge.
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`

	Pass  Pass    `json:"pass"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
	Votes int     `json:"votes"`

	// Rect is the rectangle the detection was derived from.
	Rect Rectangle `json:"rect"`
}

// PassResult summarizes one pass over one frame.
type PassResult struct {
	Pass       Pass
	Rectangles int
	Detections []Detection
	Rejections map[Reason]int
}

// RunPass extracts rectangles from prep.Features, runs both Hough searches
// for each and keeps the candidates Check accepts.
//
// Every rectangle is searched twice with the same HoughLines call: once
// over the equalized pixels inside it, once over the whole equalized frame
// with the angle limited to p.HoughWindow around the rectangle's normal.
//
// The context is checked between rectangles; on cancellation the partial
// result is returned with ctx.Err().
func RunPass(ctx context.Context, pass Pass, prep Prepared, p LineParams, sink DebugSink) (PassResult, error) {
	result := PassResult{Pass: pass, Rejections: make(map[Reason]int)}
	frame := prep.Features.Bounds()
	suffix := strings.ToUpper(string(pass))

	rects := slices.Collect(Rectangles(prep.Features, p.extractOptions()))
	result.Rectangles = len(rects)
	snapshot(sink, "contours"+suffix, func() image.Image { return drawRectangles(frame, rects) })

	equalized := Foreground(prep.Equalized)
	boxOpts := HoughOptions{RhoStep: p.HoughMethod, Threshold: p.HoughThreshold, MaxLines: p.NlinesInSet}

	var boxSets, equSets []LineSet
	for _, rect := range rects {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		box := HoughLines(ForegroundIn(prep.Equalized, rect), boxOpts)

		equOpts := boxOpts
		equOpts.ThetaCenter = rect.Normal()
		equOpts.ThetaWindow = p.HoughWindow
		equ := HoughLines(equalized, equOpts)

		boxSets = append(boxSets, box)
		equSets = append(equSets, equ)

		d := Check(box, equ, p.thresholds(), frame)
		if d.Verdict != Accepted {
			result.Rejections[d.Reason]++
			continue
		}
		result.Detections = append(result.Detections, Detection{
			P1:    d.P1,
			P2:    d.P2,
			Pass:  pass,
			Theta: d.Line.Theta,
			Rho:   d.Line.Rho,
			Votes: d.Line.Votes,
			Rect:  rect,
		})
	}

	snapshot(sink, "boxhough"+suffix, func() image.Image {
		return drawLineSets(drawRectangles(frame, rects), boxSets)
	})
	snapshot(sink, "equhough"+suffix, func() image.Image {
		return drawLineSets(prep.Equalized, equSets)
	})

	result.Detections = p.merge(result.Detections)
	return result, nil
}

// mergeCollinear drops detections describing the same line as a stronger
// one: angles within maxTheta and offsets within maxRho. The survivors keep
// their original order.
func mergeCollinear(dets []Detection, maxTheta, maxRho float64) []Detection {
	if len(dets) < 2 {
		return dets
	}

	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return dets[b].Votes - dets[a].Votes
	})

	keep := make([]bool, len(dets))
	var kept []Line
	for _, i := range order {
		l := Line{Theta: dets[i].Theta, Rho: dets[i].Rho}
		duplicate := false
		for _, k := range kept {
			a := alignLine(l, k.Theta)
			if math.Abs(a.Theta-k.Theta) <= maxTheta && math.Abs(a.Rho-k.Rho) <= maxRho {
				duplicate = true
				break
			}
		}
		if !duplicate {
			keep[i] = true
			kept = append(kept, l)
		}
	}

	out := make([]Detection, 0, len(kept))
	for i, d := range dets {
		if keep[i] {
			out = append(out, d)
		}
	}
	return out
}

// RunBright preprocesses frame for the bright pass and runs it.
func RunBright(ctx context.Context, frame *imaging.Frame, mask *imaging.Mask, p BrightParams, sink DebugSink) (PassResult, error) {
	if !p.Debug {
		sink = nil
	}
	prep := PreprocessBright(frame, mask, p, sink)
	return RunPass(ctx, PassBright, prep, p.LineParams, sink)
}

// RunDim preprocesses frame for the dim pass and runs it.
func RunDim(ctx context.Context, frame *imaging.Frame, mask *imaging.Mask, p DimParams, sink DebugSink) (PassResult, error) {
	if !p.Debug {
		sink = nil
	}
	prep := PreprocessDim(frame, mask, p, sink)
	return RunPass(ctx, PassDim, prep, p.LineParams, sink)
}
