// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "https://example.com/jobs/1", "https://example.com/jobs/1"},
		{"fragment stripped", "https://example.com/jobs/1#apply", "https://example.com/jobs/1"},
		{"trailing slash", "https://example.com/jobs/1/", "https://example.com/jobs/1"},
		{"fragment and slash", "https://example.com/jobs/1/#apply-now", "https://example.com/jobs/1"},
		{"whitespace", "  https://example.com/jobs/1 ", "https://example.com/jobs/1"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeURL(tc.raw))
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{StatusAttempted, StatusApplied, true},
		{StatusAttempted, StatusError, true},
		{StatusAttempted, StatusRejectedBySource, true},
		{StatusAttempted, StatusAttempted, true},
		{StatusApplied, StatusAttempted, false},
		{StatusError, StatusAttempted, false},
		{StatusRejectedBySource, StatusAttempted, false},
		{StatusApplied, StatusError, true},
		{StatusError, StatusApplied, true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSetStatusIgnoresRegression(t *testing.T) {
	r := &ApplicationRecord{}
	r.SetStatus(StatusAttempted)
	r.SetStatus(StatusApplied)
	r.SetStatus(StatusAttempted)
	assert.Equal(t, StatusApplied, r.Status)
}

func TestHasDescription(t *testing.T) {
	assert.False(t, JobPosting{}.HasDescription())
	assert.False(t, JobPosting{Description: "short text"}.HasDescription())
	assert.True(t, JobPosting{Description: "We are looking for a Go engineer to join our platform team."}.HasDescription())
}

func TestHRContactDedupKey(t *testing.T) {
	assert.Equal(t, "a@b.com", HRContact{Email: "a@b.com", LinkedIn: "https://linkedin.com/in/x", Name: "A"}.DedupKey())
	assert.Equal(t, "https://linkedin.com/in/x", HRContact{LinkedIn: "https://linkedin.com/in/x", Name: "A"}.DedupKey())
	assert.Equal(t, "A", HRContact{Name: "A"}.DedupKey())
	assert.Equal(t, "", HRContact{}.DedupKey())
}
