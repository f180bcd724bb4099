package pipeline

import (
	"context"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

// ImageProvider loads calibrated frames.
type ImageProvider interface {
	Image(ctx context.Context, id survey.FrameID) (*imaging.Frame, error)
}

// CatalogProvider loads the catalog sources overlapping a frame.
type CatalogProvider interface {
	Sources(ctx context.Context, id survey.FrameID) ([]survey.CatalogSource, error)
}

// ResultSink receives accepted detections. Emit is called from several
// goroutines.
type ResultSink interface {
	Emit(ctx context.Context, rec Record) error
}

// FailureSink receives frames that could not be processed. Fail is called
// from several goroutines.
type FailureSink interface {
	Fail(ctx context.Context, id survey.FrameID, err error) error
}

// DebugFactory hands out a debug sink per frame.
type DebugFactory interface {
	ForFrame(id survey.FrameID) detection.DebugSink
}
