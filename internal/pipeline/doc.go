// Package pipeline drives trail detection over many frames.
//
// A Detector turns one frame and its catalog into accepted detections: it
// masks known sources, runs the bright and dim passes and aggregates their
// results. A Runner feeds frames from an ImageProvider and a
// CatalogProvider through a bounded worker pool and reports each outcome
// to a ResultSink or a FailureSink.
//
// Frames share no mutable state. A frame that cannot be loaded is reported
// and skipped; only sink failures and cancellation stop a run.
package pipeline
