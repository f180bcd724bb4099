package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/survey"
)

// Output formats understood by WriterSink.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Record is one accepted detection as reported to a ResultSink.
type Record struct {
	RunID  string          `json:"run_id,omitempty"`
	Run    int             `json:"run"`
	Camcol int             `json:"camcol"`
	Filter survey.Band     `json:"filter"`
	Field  int             `json:"field"`
	P1     detection.Point `json:"p1"`
	P2     detection.Point `json:"p2"`
	Pass   detection.Pass  `json:"pass"`
	Theta  float64         `json:"theta"`
	Rho    float64         `json:"rho"`
	Votes  int             `json:"votes"`
}

func newRecord(runID string, id survey.FrameID, d detection.Detection) Record {
	return Record{
		RunID:  runID,
		Run:    id.Run,
		Camcol: id.Camcol,
		Filter: id.Filter,
		Field:  id.Field,
		P1:     d.P1,
		P2:     d.P2,
		Pass:   d.Pass,
		Theta:  d.Theta,
		Rho:    d.Rho,
		Votes:  d.Votes,
	}
}

// WriterSink writes records to w, one per line.
//
// The text format is "run camcol filter field x1 y1 x2 y2 pass"; the json
// format writes one object per line.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

// NewWriterSink returns a sink writing format to w.
func NewWriterSink(w io.Writer, format string) (*WriterSink, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q (expected text or json)", format)
	}
	return &WriterSink{w: w, format: format}, nil
}

// Emit writes rec.
func (s *WriterSink) Emit(_ context.Context, rec Record) error {
	var line []byte
	if s.format == FormatJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		line = append(data, '\n')
	} else {
		line = fmt.Appendf(nil, "%d %d %s %d %d %d %d %d %s\n",
			rec.Run, rec.Camcol, rec.Filter, rec.Field,
			rec.P1.X, rec.P1.Y, rec.P2.X, rec.P2.Y, rec.Pass)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// WriterFailureSink writes failed frames to w as a "run,camcol,field,filter"
// line, the error text and a blank line.
type WriterFailureSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterFailureSink returns a failure sink writing to w.
func NewWriterFailureSink(w io.Writer) *WriterFailureSink {
	return &WriterFailureSink{w: w}
}

// Fail writes the failure of id.
func (s *WriterFailureSink) Fail(_ context.Context, id survey.FrameID, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%d,%d,%d,%s\n%v\n\n", id.Run, id.Camcol, id.Field, id.Filter, cause)
	if err != nil {
		return fmt.Errorf("failed to write failure: %w", err)
	}
	return nil
}
