// internal/pipeline/events.go
package pipeline

import (
	"time"

	"autoapply/internal/models"
)

// EventSink receives progress events as a run advances. Events for one
// run are emitted in the processing order of its postings.
type EventSink interface {
	Emit(event models.ProgressEvent)
}

// NoopSink discards events; the scheduler uses it for unattended runs.
type NoopSink struct{}

func (NoopSink) Emit(models.ProgressEvent) {}

func emit(sink EventSink, eventType models.EventType, userID string, job *models.JobPosting, record *models.ApplicationRecord, summary *models.AutomationRunResult) {
	if sink == nil {
		return
	}
	sink.Emit(models.ProgressEvent{
		Type:       eventType,
		UserID:     userID,
		Job:        job,
		Record:     record,
		Summary:    summary,
		OccurredAt: time.Now().UTC(),
	})
}
