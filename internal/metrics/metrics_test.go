package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/trailscan/internal/detection"
)

func TestObservePass(t *testing.T) {
	m := New()
	m.ObservePass(detection.PassResult{
		Pass:       detection.PassBright,
		Rectangles: 4,
		Detections: make([]detection.Detection, 1),
		Rejections: map[detection.Reason]int{detection.ReasonOffset: 2, detection.ReasonAngle: 1},
	})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Rectangles.WithLabelValues("bright")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("bright")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejections.WithLabelValues("bright", "offset")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Detections.WithLabelValues("dim")))
}

func TestObserveFrame(t *testing.T) {
	m := New()
	m.ObserveFrame(StatusOK, 200*time.Millisecond)
	m.ObserveFrame(StatusFailed, time.Second)
	m.ObserveFrame(StatusOK, time.Millisecond)
	m.ObserveWarnings(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues(StatusFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SourceWarnings))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FrameDuration))
}

func TestNilMetricsDiscard(t *testing.T) {
	var m *Metrics
	m.ObserveFrame(StatusOK, time.Second)
	m.ObservePass(detection.PassResult{Pass: detection.PassDim})
	m.ObserveWarnings(1)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFrame(StatusOK, time.Second)

	path := filepath.Join(t.TempDir(), "trailscan.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `trailscan_frames_total{status="ok"} 1`)
}
