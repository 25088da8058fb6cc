// internal/models/run.go
package models

import "time"

// AutomationRunResult is the per-user tally of one scheduler invocation
// or one interactive run. Ephemeral: reported, optionally logged, then
// discarded.
type AutomationRunResult struct {
	UserID     string    `json:"userId"`
	Found      int       `json:"found"`
	Applied    int       `json:"applied"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
