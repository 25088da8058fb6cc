// internal/models/posting.go
package models

import (
	"strings"
	"time"
)

// JobPosting is a normalized posting as produced by the source aggregator.
// URL is the deduplication key: union-unique across a user's application
// history. A posting is never mutated after the aggregator returns it.
type JobPosting struct {
	SourceID    string    `json:"sourceId"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	PostedAt    time.Time `json:"postedAt"`
	SourceTag   string    `json:"sourceTag"`
	Synthetic   bool      `json:"synthetic"`
}

// NormalizeURL strips fragments and trailing slashes so that trivially
// different spellings of the same link dedup together.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// HasDescription reports whether the posting carries enough description
// text to be worth analyzing as-is.
func (p JobPosting) HasDescription() bool {
	return len(strings.TrimSpace(p.Description)) >= 40
}
