package ner

import "context"

// Entity is a single span returned by the recognizer, with its generic label.
type Entity struct {
	Label      string
	Text       string
	Confidence float64
}

// Recognizer defines a pluggable named-entity recognition backend.
// Implementations may use ONNX Runtime or a remote inference service.
type Recognizer interface {
	// Recognize returns the entities found in text with confidence at or
	// above threshold.
	Recognize(ctx context.Context, text string, threshold float64) ([]Entity, error)
	// IsReady returns whether the backend is initialized and ready.
	IsReady() bool
	// Close releases any native resources.
	Close() error
}

// Status describes how a recognition attempt concluded. It lets callers
// distinguish "no entities found" from "recognizer errored", even though the
// pipeline degrades to pattern-only detection in both cases.
type Status string

const (
	// StatusOK means the recognizer ran and its entities (possibly none)
	// are in the outcome.
	StatusOK Status = "ok"
	// StatusUnavailable means no recognizer backend is configured or ready.
	StatusUnavailable Status = "unavailable"
	// StatusFailed means the recognizer ran and errored or timed out.
	StatusFailed Status = "failed"
)
