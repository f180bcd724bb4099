package pipeline

import (
	"errors"
	"fmt"

	"github.com/ironsheep/trailscan/internal/survey"
)

// ErrInput marks a frame whose image or catalog could not be read.
var ErrInput = errors.New("input error")

// ErrPanic marks a frame whose processing panicked.
var ErrPanic = errors.New("panic")

// Frame processing stages named in a FrameError.
const (
	StageImage   = "image"
	StageCatalog = "catalog"
	StageDetect  = "detect"
)

// FrameError ties a failure to the frame and stage it occurred in.
type FrameError struct {
	Frame survey.FrameID
	Stage string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %s: %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

func inputError(id survey.FrameID, stage string, err error) *FrameError {
	return &FrameError{Frame: id, Stage: stage, Err: fmt.Errorf("%w: %w", ErrInput, err)}
}

func panicError(id survey.FrameID, p any) *FrameError {
	return &FrameError{Frame: id, Stage: StageDetect, Err: fmt.Errorf("%w: %v", ErrPanic, p)}
}
