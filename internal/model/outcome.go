package model

import "time"

// Stage identifies where in the pipeline an error occurred.
type Stage string

const (
	StageExtract   Stage = "Extract"
	StageTransform Stage = "Transform"
	StageLoad      Stage = "Load"
)

// RunState is the terminal state of one pipeline run.
type RunState string

const (
	StateCompleted RunState = "completed"
	StateAborted   RunState = "aborted"
)

// ErrorRecord captures one per-item or per-stage failure. It is never
// mutated after creation; ownership transfers to the run outcome.
type ErrorRecord struct {
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Raw       RawRecord `json:"relatedRecord,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LoadStatus is the per-record outcome of persistence.
type LoadStatus string

const (
	LoadSuccess LoadStatus = "success"
	LoadFailed  LoadStatus = "failed"
)

// LoadResult is the outcome of persisting one contact. The sink returns
// exactly one result per submitted record, in submission order.
type LoadResult struct {
	Record      Contact    `json:"record"`
	Status      LoadStatus `json:"status"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
}

// RunOutcome is the aggregate result of one end-to-end pipeline run.
// Errors are ordered by stage: Extract first, then Transform, then Load.
type RunOutcome struct {
	RequestID        string        `json:"requestId"`
	State            RunState      `json:"state"`
	ExtractedCount   int           `json:"extractedCount"`
	TransformedCount int           `json:"transformedCount"`
	LoadedCount      int           `json:"loadedCount"`
	FailedCount      int           `json:"failedCount"`
	Errors           []ErrorRecord `json:"errors"`
	StartedAt        time.Time     `json:"startedAt"`
	FinishedAt       time.Time     `json:"finishedAt"`
}
