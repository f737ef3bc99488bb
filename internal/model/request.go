package model

// RunRequest is the body for POST /pipeline/run.
type RunRequest struct {
	SourceEndpoint string `json:"sourceEndpoint"`
	TimeoutMs      int    `json:"timeoutMs,omitempty"`
}
