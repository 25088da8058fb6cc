// internal/models/application.go
package models

import "time"

// ApplicationStatus enumerates the terminal state of one pipeline run for
// one (user, job) pair.
type ApplicationStatus string

const (
	StatusAttempted        ApplicationStatus = "attempted"
	StatusApplied          ApplicationStatus = "applied"
	StatusRejectedBySource ApplicationStatus = "rejected_by_source"
	StatusError            ApplicationStatus = "error"
)

// statusRank orders statuses so that a record can only move forward
// within a single pipeline run: applied and error are terminal outcomes
// and never regress to attempted.
var statusRank = map[ApplicationStatus]int{
	StatusAttempted:        1,
	StatusRejectedBySource: 2,
	StatusApplied:          3,
	StatusError:            3,
}

// CanTransition reports whether moving from to next would regress the
// record within a run.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return statusRank[next] >= statusRank[s]
}

// ApplicationRecord is the one-per-(user, job) audit record produced by
// every pipeline invocation. Created once, never deleted; only status and
// notes are updateable after creation.
type ApplicationRecord struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	JobID            string            `json:"jobId"`
	JobURL           string            `json:"jobUrl"`
	Status           ApplicationStatus `json:"status"`
	MatchScore       int               `json:"matchScore"`
	ResumeCustomized bool              `json:"resumeCustomized"`
	Notes            []string          `json:"notes"`
	ArtifactLink     string            `json:"artifactLink,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AddNote appends a line to the free-text audit trail.
func (r *ApplicationRecord) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// SetStatus advances the record status, ignoring regressions.
func (r *ApplicationRecord) SetStatus(next ApplicationStatus) {
	if r.Status == "" || r.Status.CanTransition(next) {
		r.Status = next
	}
}
