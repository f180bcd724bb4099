package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/trailscan/internal/metrics"
	"github.com/ironsheep/trailscan/internal/survey"
)

// Runner processes a batch of frames.
type Runner struct {
	Images   ImageProvider
	Catalog  CatalogProvider
	Detector *Detector
	Results  ResultSink
	Failures FailureSink

	// Workers bounds the number of frames in flight. Values below one
	// mean one.
	Workers int

	Log     *zap.Logger
	Metrics *metrics.Metrics

	// RunID tags every emitted record.
	RunID string
}

// Summary counts the outcome of a run.
type Summary struct {
	Frames     int
	Failed     int
	Detections int
	Elapsed    time.Duration
}

type tally struct {
	mu sync.Mutex
	Summary
}

func (t *tally) add(failed bool, detections int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Frames++
	if failed {
		t.Failed++
	}
	t.Detections += detections
}

// Run processes frames with up to Workers frames in parallel.
//
// Frames whose image or catalog cannot be read, or whose processing fails
// or panics, are reported to Failures and the run continues. An error from
// a sink or cancellation of ctx stops the run; frames cancelled mid-way
// emit nothing.
func (r *Runner) Run(ctx context.Context, frames []survey.FrameID) (Summary, error) {
	start := time.Now()
	workers := max(r.Workers, 1)

	var t tally
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	r.Log.Info("Starting run",
		zap.String("run_id", r.RunID),
		zap.Int("frames", len(frames)),
		zap.Int("workers", workers))

	for _, id := range frames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return r.process(gctx, id, &t)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	t.Elapsed = time.Since(start)
	r.Log.Info("Run finished",
		zap.String("run_id", r.RunID),
		zap.Int("frames", t.Frames),
		zap.Int("failed", t.Failed),
		zap.Int("detections", t.Detections),
		zap.Duration("elapsed", t.Elapsed),
		zap.Error(err))
	return t.Summary, err
}

func (r *Runner) process(ctx context.Context, id survey.FrameID, t *tally) error {
	start := time.Now()
	log := r.Log.With(frameFields(id)...)

	res, ferr := r.detect(ctx, id)
	if err := ctx.Err(); err != nil {
		return err
	}
	if ferr != nil {
		log.Error("Frame failed", zap.Error(ferr))
		r.Metrics.ObserveFrame(metrics.StatusFailed, time.Since(start))
		t.add(true, 0)
		if r.Failures == nil {
			return nil
		}
		if err := r.Failures.Fail(ctx, id, ferr); err != nil {
			return fmt.Errorf("failed to record failure of frame %s: %w", id, err)
		}
		return nil
	}

	for _, det := range res.Detections {
		if err := r.Results.Emit(ctx, newRecord(r.RunID, id, det)); err != nil {
			return fmt.Errorf("failed to emit detection for frame %s: %w", id, err)
		}
	}

	r.Metrics.ObserveFrame(metrics.StatusOK, time.Since(start))
	t.add(false, len(res.Detections))
	log.Info("Frame processed",
		zap.Int("detections", len(res.Detections)),
		zap.Int("masked_pixels", res.Masked),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Runner) detect(ctx context.Context, id survey.FrameID) (res *FrameResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			fields := append(frameFields(id), zap.Any("panic", p), zap.Stack("stack"))
			r.Log.Error("Recovered panic", fields...)
			res, err = nil, panicError(id, p)
		}
	}()

	frame, err := r.Images.Image(ctx, id)
	if err != nil {
		return nil, inputError(id, StageImage, err)
	}
	sources, err := r.Catalog.Sources(ctx, id)
	if err != nil {
		return nil, inputError(id, StageCatalog, err)
	}
	res, err = r.Detector.Detect(ctx, id, frame, sources)
	if err != nil {
		var fe *FrameError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FrameError{Frame: id, Stage: StageDetect, Err: err}
	}
	return res, nil
}
