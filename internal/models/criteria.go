// internal/models/criteria.go
package models

import "strings"

// ExperienceLevel buckets a posting or a search by seniority.
type ExperienceLevel string

const (
	ExperienceAny    ExperienceLevel = ""
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// JobType narrows a search to an employment arrangement.
type JobType string

const (
	JobTypeAny      JobType = ""
	JobTypeFullTime JobType = "full_time"
	JobTypePartTime JobType = "part_time"
	JobTypeContract JobType = "contract"
	JobTypeIntern   JobType = "internship"
)

// SearchCriteria is the immutable input of a discovery run. An empty
// Location means any location; Keywords are expected non-empty but not
// enforced here.
type SearchCriteria struct {
	Keywords   []string        `json:"keywords"`
	Location   string          `json:"location"`
	Experience ExperienceLevel `json:"experience"`
	Type       JobType         `json:"jobType"`
}

// Query joins the keywords into the free-text query sent to sources.
func (c SearchCriteria) Query() string {
	return strings.Join(c.Keywords, " ")
}

// RemoteOnly reports whether the criteria target remote work.
func (c SearchCriteria) RemoteOnly() bool {
	return strings.EqualFold(strings.TrimSpace(c.Location), "remote")
}
