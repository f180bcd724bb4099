package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/metrics"
	"github.com/ironsheep/trailscan/internal/survey"
)

// Options configure a Detector. They are copied on construction.
type Options struct {
	Bright detection.BrightParams
	Dim    detection.DimParams
	Mask   detection.MaskParams

	// FlipVertical flips frame and mask after masking.
	FlipVertical bool

	// DimFallbackOnly skips the dim pass when the bright pass accepted
	// anything.
	DimFallbackOnly bool
}

// FrameResult is everything a Detector learned about one frame.
type FrameResult struct {
	Frame      survey.FrameID
	Detections []detection.Detection
	Passes     []detection.PassResult
	Warnings   []detection.SourceWarning
	Masked     int
}

// Detector runs both passes over single frames. It is safe for concurrent
// use.
type Detector struct {
	opts    Options
	log     *zap.Logger
	metrics *metrics.Metrics
	debug   DebugFactory
}

// NewDetector returns a Detector. log must not be nil; m and debug may be.
func NewDetector(opts Options, log *zap.Logger, m *metrics.Metrics, debug DebugFactory) *Detector {
	return &Detector{opts: opts, log: log, metrics: m, debug: debug}
}

// Detect masks catalog sources out of frame and searches it for trails.
//
// The frame is not modified. Detections are ordered bright pass first.
func (d *Detector) Detect(ctx context.Context, id survey.FrameID, frame *imaging.Frame, sources []survey.CatalogSource) (*FrameResult, error) {
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return nil, inputError(id, StageImage, errors.New("empty frame"))
	}
	log := d.log.With(frameFields(id)...)

	mask, warnings := detection.BuildMask(frame.Width, frame.Height, sources, id.Filter, d.opts.Mask)
	for _, w := range warnings {
		log.Warn("Skipping catalog source", zap.Int("index", w.Index), zap.String("reason", w.Reason))
	}
	d.metrics.ObserveWarnings(len(warnings))

	var sink detection.DebugSink
	if d.debug != nil {
		sink = d.debug.ForFrame(id)
	}
	if sink != nil && d.opts.Mask.Debug {
		sink.Snapshot("maskREMOVESTARS", mask.Image())
	}

	if d.opts.FlipVertical {
		frame = frame.FlipV()
		mask = mask.FlipV()
	}

	res := &FrameResult{Frame: id, Warnings: warnings, Masked: mask.Count()}

	var bright, dim detection.PassResult
	var err error
	if d.opts.DimFallbackOnly {
		bright, err = guard(func() (detection.PassResult, error) {
			return detection.RunBright(ctx, frame, mask, d.opts.Bright, sink)
		})
		if err == nil && len(bright.Detections) == 0 {
			dim, err = guard(func() (detection.PassResult, error) {
				return detection.RunDim(ctx, frame, mask, d.opts.Dim, sink)
			})
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			bright, err = guard(func() (detection.PassResult, error) {
				return detection.RunBright(gctx, frame, mask, d.opts.Bright, sink)
			})
			return err
		})
		g.Go(func() error {
			var err error
			dim, err = guard(func() (detection.PassResult, error) {
				return detection.RunDim(gctx, frame, mask, d.opts.Dim, sink)
			})
			return err
		})
		err = g.Wait()
	}
	if err != nil {
		return nil, &FrameError{Frame: id, Stage: StageDetect, Err: err}
	}

	for _, pass := range []detection.PassResult{bright, dim} {
		if pass.Pass == "" {
			continue
		}
		res.Passes = append(res.Passes, pass)
		res.Detections = append(res.Detections, pass.Detections...)
		d.metrics.ObservePass(pass)
		log.Debug("Pass finished",
			zap.String("pass", string(pass.Pass)),
			zap.Int("rectangles", pass.Rectangles),
			zap.Int("detections", len(pass.Detections)),
			zap.Any("rejections", pass.Rejections))
	}
	return res, nil
}

func frameFields(id survey.FrameID) []zap.Field {
	return []zap.Field{
		zap.Int("run", id.Run),
		zap.Int("camcol", id.Camcol),
		zap.String("filter", string(id.Filter)),
		zap.Int("field", id.Field),
	}
}

// guard runs one pass, turning a panic into an ErrPanic error.
func guard(run func() (detection.PassResult, error)) (res detection.PassResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	return run()
}
