// internal/store/store.go
package store

import (
	"context"

	"autoapply/internal/models"
)

// Store is the persistence surface the pipeline and scheduler depend on.
// The postgres implementation is authoritative; the elasticsearch mirror
// is best effort and never blocks a write.
type Store interface {
	// UpsertJobPosting stores a posting keyed by normalized URL and
	// returns its id. Re-seeing a URL refreshes mutable fields.
	UpsertJobPosting(ctx context.Context, posting models.JobPosting) (string, error)

	// CreateApplicationRecord inserts the audit record for one
	// (user, job) pipeline invocation and fills in its ID.
	CreateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error

	// UpdateApplicationRecord persists status, notes, score, and
	// artifact link. Status regressions are silently ignored.
	UpdateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error

	// HasApplication reports whether the user already holds a record
	// for the given normalized URL.
	HasApplication(ctx context.Context, userID, url string) (bool, error)

	// AppliedURLs returns every URL the user has a record for, for
	// building per-run exclusion sets.
	AppliedURLs(ctx context.Context, userID string) ([]string, error)

	// SaveHRContacts stores extracted contacts for a job, deduplicated
	// on their natural key. Best effort per contact.
	SaveHRContacts(ctx context.Context, jobID string, contacts []models.HRContact) error

	// SaveResumeArtifact stores the resume text pair for a record.
	SaveResumeArtifact(ctx context.Context, artifact models.ResumeArtifact) error

	// EligibleUsers lists users whose identities are linked and whose
	// automation flag is on, in deterministic order.
	EligibleUsers(ctx context.Context) ([]models.User, error)

	// GetUser loads one user by id, or nil when unknown.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// RecordRunSummary appends a per-user run tally.
	RecordRunSummary(ctx context.Context, result models.AutomationRunResult) error

	// LatestRunSummary returns the most recent tally for the user, or
	// nil when the user has never run.
	LatestRunSummary(ctx context.Context, userID string) (*models.AutomationRunResult, error)
}
