package faults

import "time"

// Fault is a persisted record of a degraded step inside a pipeline run
// (classifier fallback, dispatch failure). Written best-effort; never
// affects the run's outcome.
type Fault struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Stage       string    `json:"stage"` // classify | dispatch | archive | audit | publish
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
