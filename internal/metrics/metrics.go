// Package metrics collects per-run detection counters.
//
// Each run owns a private registry so tests and repeated runs in one
// process never collide. Batch jobs export the registry in the text
// exposition format for the node exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ironsheep/trailscan/internal/detection"
)

// Frame outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the collectors of one run. A nil *Metrics discards all
// observations.
type Metrics struct {
	Registry *prometheus.Registry

	Frames         *prometheus.CounterVec
	Rectangles     *prometheus.CounterVec
	Detections     *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	SourceWarnings prometheus.Counter
	FrameDuration  prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trailscan_frames_total",
				Help: "Total number of frames processed",
			},
			[]string{"status"},
		),
		Rectangles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trailscan_rectangles_total",
				Help: "Total number of candidate rectangles extracted",
			},
			[]string{"pass"},
		),
		Detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trailscan_detections_total",
				Help: "Total number of accepted detections",
			},
			[]string{"pass"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trailscan_rejections_total",
				Help: "Total number of rejected candidates",
			},
			[]string{"pass", "reason"},
		),
		SourceWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "trailscan_source_warnings_total",
				Help: "Total number of unusable catalog entries",
			},
		),
		FrameDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trailscan_frame_duration_seconds",
				Help:    "Time taken to process one frame",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}
}

// ObservePass records the outcome of one pass.
func (m *Metrics) ObservePass(res detection.PassResult) {
	if m == nil {
		return
	}
	pass := string(res.Pass)
	m.Rectangles.WithLabelValues(pass).Add(float64(res.Rectangles))
	m.Detections.WithLabelValues(pass).Add(float64(len(res.Detections)))
	for reason, n := range res.Rejections {
		m.Rejections.WithLabelValues(pass, string(reason)).Add(float64(n))
	}
}

// ObserveFrame records a finished frame.
func (m *Metrics) ObserveFrame(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(status).Inc()
	m.FrameDuration.Observe(elapsed.Seconds())
}

// ObserveWarnings counts unusable catalog entries.
func (m *Metrics) ObserveWarnings(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SourceWarnings.Add(float64(n))
}

// WriteTextfile writes the registry to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
