package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

// recordingSink collects snapshot names.
type recordingSink struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSink) Snapshot(name string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
}

func (s *recordingSink) sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.names...)
	sort.Strings(out)
	return out
}

type passRunner func(ctx context.Context, frame *imaging.Frame, mask *imaging.Mask) (PassResult, error)

func bothPasses() map[Pass]passRunner {
	return map[Pass]passRunner{
		PassBright: func(ctx context.Context, f *imaging.Frame, m *imaging.Mask) (PassResult, error) {
			return RunBright(ctx, f, m, DefaultBright(), nil)
		},
		PassDim: func(ctx context.Context, f *imaging.Frame, m *imaging.Mask) (PassResult, error) {
			return RunDim(ctx, f, m, DefaultDim(), nil)
		},
	}
}

func TestRoundTripHorizontalTrail(t *testing.T) {
	frame := createHorizontalTrail(200, 200, 99, 3, 5)
	mask := imaging.NewMask(200, 200)

	for pass, run := range bothPasses() {
		t.Run(string(pass), func(t *testing.T) {
			res, err := run(context.Background(), frame, mask)
			require.NoError(t, err)
			require.Len(t, res.Detections, 1)

			d := res.Detections[0]
			assert.Equal(t, pass, d.Pass)
			assert.True(t, endpointsNear(d.P1, d.P2, Point{0, 100}, Point{199, 100}, 2),
				"endpoints %v %v", d.P1, d.P2)
			assert.InDelta(t, math.Pi/2, d.Theta, 0.02)
		})
	}
}

func TestRoundTripDiagonalTrail(t *testing.T) {
	tests := []struct {
		pass  Pass
		half  int
		frame func(*imaging.Frame) (PassResult, error)
	}{
		{PassBright, 1, func(f *imaging.Frame) (PassResult, error) {
			return RunBright(context.Background(), f, nil, DefaultBright(), nil)
		}},
		{PassDim, 2, func(f *imaging.Frame) (PassResult, error) {
			return RunDim(context.Background(), f, nil, DefaultDim(), nil)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.pass), func(t *testing.T) {
			res, err := tt.frame(createDiagonalTrail(200, 200, 20, 180, tt.half, 5))
			require.NoError(t, err)
			require.Len(t, res.Detections, 1)

			d := res.Detections[0]
			assert.True(t, endpointsNear(d.P1, d.P2, Point{0, 0}, Point{199, 199}, 2),
				"endpoints %v %v", d.P1, d.P2)
		})
	}
}

func TestRoundTripSlopeSweep(t *testing.T) {
	values := map[Pass]float64{PassBright: 5, PassDim: 0.1}

	for pass, run := range bothPasses() {
		for _, y1 := range []int{10, 40, 70, 100, 130, 160, 190} {
			t.Run(fmt.Sprintf("%s/%d", pass, y1), func(t *testing.T) {
				start, end := Point{0, 10}, Point{199, y1}
				res, err := run(context.Background(), createSegment(200, 200, start, end, values[pass]), nil)
				require.NoError(t, err)
				require.NotEmpty(t, res.Detections)

				d := res.Detections[0]
				assert.True(t, endpointsNear(d.P1, d.P2, start, end, 2),
					"endpoints %v %v, theta %.3f", d.P1, d.P2, d.Theta)
			})
		}
	}
}

func TestAllZeroFrame(t *testing.T) {
	frame := createFrame(120, 80, 0)
	for pass, run := range bothPasses() {
		t.Run(string(pass), func(t *testing.T) {
			res, err := run(context.Background(), frame, imaging.NewMask(120, 80))
			require.NoError(t, err)
			assert.Zero(t, res.Rectangles)
			assert.Empty(t, res.Detections)
		})
	}
}

func TestOccludedTrail(t *testing.T) {
	frame := createHorizontalTrail(200, 200, 99, 3, 5)

	petro := map[survey.Band]float64{survey.BandR: 30}
	left := brightSource(50, 100, 15)
	left.Petro90 = petro
	right := brightSource(150, 100, 15)
	right.Petro90 = petro

	mask, warnings := BuildMask(200, 200, []survey.CatalogSource{left, right}, survey.BandR, DefaultMask())
	require.Empty(t, warnings)

	for pass, run := range bothPasses() {
		t.Run(string(pass), func(t *testing.T) {
			res, err := run(context.Background(), frame, mask)
			require.NoError(t, err)
			assert.Empty(t, res.Detections)
		})
	}
}

func TestRunPassCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBright(ctx, createHorizontalTrail(200, 200, 99, 3, 5), nil, DefaultBright(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDebugSnapshots(t *testing.T) {
	frame := createHorizontalTrail(100, 100, 50, 3, 5)

	t.Run("bright", func(t *testing.T) {
		sink := &recordingSink{}
		p := DefaultBright()
		p.Debug = true
		_, err := RunBright(context.Background(), frame, nil, p, sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"boxhoughBRIGHT", "contoursBRIGHT", "dilateBRIGHT", "equBRIGHT", "equhoughBRIGHT"}, sink.sorted())
	})

	t.Run("dim", func(t *testing.T) {
		sink := &recordingSink{}
		p := DefaultDim()
		p.Debug = true
		_, err := RunDim(context.Background(), frame, nil, p, sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"boxhoughDIM", "contoursDIM", "equDIM", "equhoughDIM", "erodedDIM", "openedDIM"}, sink.sorted())
	})

	t.Run("disabled", func(t *testing.T) {
		sink := &recordingSink{}
		_, err := RunBright(context.Background(), frame, nil, DefaultBright(), sink)
		require.NoError(t, err)
		assert.Empty(t, sink.sorted())
	})
}

func TestMergeCollinear(t *testing.T) {
	dets := []Detection{
		{Theta: math.Pi / 2, Rho: 100, Votes: 50},
		{Theta: math.Pi / 2, Rho: 40, Votes: 80},
		{Theta: math.Pi/2 + 0.05, Rho: 104, Votes: 120},
		{Theta: 0.01, Rho: 30, Votes: 10},
		{Theta: math.Pi - 0.01, Rho: -32, Votes: 20},
	}

	merged := mergeCollinear(dets, 0.1, 10)
	require.Len(t, merged, 3)
	assert.Equal(t, 80, merged[0].Votes)
	assert.Equal(t, 120, merged[1].Votes)
	assert.Equal(t, 20, merged[2].Votes, "wrapped duplicate keeps the stronger one")
}

func TestMergeIgnoresCheckerThresholds(t *testing.T) {
	dets := []Detection{
		{Theta: math.Pi / 2, Rho: 100, Votes: 50},
		{Theta: math.Pi/2 + 0.1, Rho: 104, Votes: 40},
	}

	p := DefaultBright().LineParams
	p.MergeTheta = 0.12
	want := len(p.merge(dets))
	require.Equal(t, 1, want)

	for _, lt := range []float64{0.15, 0.05, 0.01} {
		for _, dro := range []float64{25, 5, 1} {
			p.LinesetTresh, p.Dro = lt, dro
			assert.Len(t, p.merge(dets), want, "linesetTresh %.2f dro %.0f", lt, dro)
		}
	}

	p.MergeCollinear = false
	assert.Len(t, p.merge(dets), 2)
}

func TestRunPassMonotonicInThresholds(t *testing.T) {
	frame := createSegment(200, 200, Point{0, 100}, Point{199, 100}, 5)
	second := createSegment(200, 200, Point{0, 110}, Point{199, 125}, 5)
	for i, v := range second.Pix {
		frame.Pix[i] += v
	}

	// Each step is at least as tight as the one before.
	steps := []struct{ linesetTresh, dro float64 }{
		{0.15, 25}, {0.1, 25}, {0.05, 25}, {0.05, 10}, {0.05, 4}, {0.02, 4},
	}

	prev := math.MaxInt
	for _, s := range steps {
		p := DefaultBright()
		p.LinesetTresh, p.Dro = s.linesetTresh, s.dro
		res, err := RunBright(context.Background(), frame, nil, p, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Detections), prev, "linesetTresh %.2f dro %.0f", s.linesetTresh, s.dro)
		prev = len(res.Detections)
	}
}

func TestRunPassCountsRejections(t *testing.T) {
	// A bar whose box and equalized searches disagree in offset: inside
	// the bar the equalized frame holds a short line, outside it a longer
	// one within the angle window.
	features := createBinary(200, 200, image.Rect(0, 20, 200, 26))
	equalized := createBinary(200, 200, image.Rect(0, 20, 60, 23), image.Rect(0, 150, 200, 153))

	res, err := RunPass(context.Background(), PassBright, Prepared{Equalized: equalized, Features: features}, DefaultBright().LineParams, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rectangles)
	assert.Empty(t, res.Detections)
	assert.Equal(t, 1, res.Rejections[ReasonOffset])
}
