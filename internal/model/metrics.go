package model

import "time"

// ErrorKind classifies an entry in a session's error log.
type ErrorKind string

// Error kinds recorded against a session.
const (
	ErrorKindPIIDetected ErrorKind = "pii_detected"
	ErrorKindAPIError    ErrorKind = "api_error"
)

// ErrorRecord is one accumulated error or advisory. Records are never discarded.
type ErrorRecord struct {
	Kind      ErrorKind `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsSnapshot is the read-only view of a session's metrics handed to sinks.
type MetricsSnapshot struct {
	DurationSeconds         float64       `json:"durationSeconds"`
	TurnCount               int           `json:"turnCount"`
	IntentRecognized        bool          `json:"intentRecognized"`
	EntitiesExtracted       []string      `json:"entitiesExtracted"`
	EntityExtractionCount   int           `json:"entityExtractionCount"`
	FallbackCount           int           `json:"fallbackCount"`
	ErrorCount              int           `json:"errorCount"`
	DataCompletenessPercent float64       `json:"dataCompletenessPercent"`
	Errors                  []ErrorRecord `json:"errors"`
}
