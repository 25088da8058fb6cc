// internal/models/events.go
package models

import "time"

// EventType names a pipeline progress event. For a single run, events
// are delivered strictly in the processing order of postings.
type EventType string

const (
	EventJobFound      EventType = "job-found"
	EventJobProcessing EventType = "job-processing"
	EventJobDone       EventType = "job-done"
	EventRunComplete   EventType = "run-complete"
)

// ProgressEvent is pushed to the interactive caller as the pipeline
// advances. Summary is set only on run-complete.
type ProgressEvent struct {
	Type       EventType            `json:"type"`
	UserID     string               `json:"userId"`
	Job        *JobPosting          `json:"job,omitempty"`
	Record     *ApplicationRecord   `json:"record,omitempty"`
	Summary    *AutomationRunResult `json:"summary,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}
