// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, nil, logger.NewTestLogger(t)), mock
}

func TestUpsertJobPosting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO job_postings`).
		WithArgs(sqlmock.AnyArg(), "adz-1", "Backend Engineer", "Acme", "Remote",
			"https://jobs.acme.com/1", "Build services", sqlmock.AnyArg(), "adzuna", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-123"))

	id, err := store.UpsertJobPosting(context.Background(), models.JobPosting{
		SourceID:    "adz-1",
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Remote",
		URL:         "https://jobs.acme.com/1/#apply",
		Description: "Build services",
		PostedAt:    time.Now(),
		SourceTag:   "adzuna",
	})

	require.NoError(t, err)
	assert.Equal(t, "job-123", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationRecordNoRegress(t *testing.T) {
	tests := []struct {
		name       string
		stored     models.ApplicationStatus
		requested  models.ApplicationStatus
		wantStatus models.ApplicationStatus
	}{
		{"forward transition", models.StatusAttempted, models.StatusApplied, models.StatusApplied},
		{"regression is ignored", models.StatusApplied, models.StatusAttempted, models.StatusApplied},
		{"error stays terminal", models.StatusError, models.StatusAttempted, models.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT status FROM application_records`).
				WithArgs("rec-1").
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(tt.stored)))
			mock.ExpectExec(`UPDATE application_records`).
				WithArgs("rec-1", string(tt.wantStatus), 72, true,
					pq.Array([]string{"note"}), "s3://bucket/key").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			record := &models.ApplicationRecord{
				ID:               "rec-1",
				Status:           tt.requested,
				MatchScore:       72,
				ResumeCustomized: true,
				Notes:            []string{"note"},
				ArtifactLink:     "s3://bucket/key",
			}
			err := store.UpdateApplicationRecord(context.Background(), record)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, record.Status)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHasApplication(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "https://jobs.acme.com/1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Trailing slash must hit the same normalized key.
	exists, err := store.HasApplication(context.Background(), "user-1", "https://jobs.acme.com/1/")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppliedURLs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT job_url FROM application_records`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"job_url"}).
			AddRow("https://jobs.acme.com/1").
			AddRow("https://jobs.other.com/2"))

	urls, err := store.AppliedURLs(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://jobs.acme.com/1", "https://jobs.other.com/2"}, urls)
}

func TestEligibleUsers(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "email", "phone", "google_id", "linkedin_id",
		"automation_enabled", "resume_text", "artifact_bucket", "criteria",
	}).
		AddRow("user-1", "a@x.com", "", "g-1", "li-1", true, "resume a", "",
			[]byte(`{"keywords":["go","backend"],"location":"Remote"}`)).
		AddRow("user-2", "b@x.com", "", "g-2", "li-2", true, "resume b", "",
			[]byte(`{not json`))

	mock.ExpectQuery(`SELECT id, email`).WillReturnRows(rows)

	users, err := store.EligibleUsers(context.Background())

	require.NoError(t, err)
	// The malformed-criteria user is skipped, not fatal.
	require.Len(t, users, 1)
	assert.Equal(t, "user-1", users[0].ID)
	assert.Equal(t, []string{"go", "backend"}, users[0].Criteria.Keywords)
	assert.True(t, users[0].AutomationEligible())
}

func TestLatestRunSummaryNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT user_id, found`).
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)

	result, err := store.LatestRunSummary(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Nil(t, result)
}
