// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore is the authoritative persistence layer. An optional
// Indexer mirrors postings into elasticsearch after each upsert.
type PostgresStore struct {
	db      *sql.DB
	indexer Indexer
	log     logger.Logger
}

// Indexer mirrors postings into a search index. Mirror failures are
// logged and swallowed; postgres remains the source of truth.
type Indexer interface {
	IndexPosting(ctx context.Context, jobID string, posting models.JobPosting) error
}

func NewPostgresStore(db *sql.DB, indexer Indexer, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, indexer: indexer, log: log}
}

func (s *PostgresStore) UpsertJobPosting(ctx context.Context, posting models.JobPosting) (string, error) {
	url := models.NormalizeURL(posting.URL)
	id := uuid.New().String()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO job_postings (id, source_id, title, company, location, url, description, posted_at, source_tag, synthetic, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (url) DO UPDATE SET
			title       = EXCLUDED.title,
			company     = EXCLUDED.company,
			location    = EXCLUDED.location,
			description = EXCLUDED.description,
			source_tag  = EXCLUDED.source_tag,
			updated_at  = NOW()
		RETURNING id`,
		id, posting.SourceID, posting.Title, posting.Company, posting.Location,
		url, posting.Description, posting.PostedAt, posting.SourceTag, posting.Synthetic,
	).Scan(&id)
	if err != nil {
		return "", errors.NewPersistenceFailedError("upsert job posting", err)
	}

	if s.indexer != nil {
		if ierr := s.indexer.IndexPosting(ctx, id, posting); ierr != nil {
			s.log.Warn("Posting index mirror failed", map[string]interface{}{
				"jobId": id,
				"error": ierr.Error(),
			})
		}
	}
	return id, nil
}

func (s *PostgresStore) CreateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = models.StatusAttempted
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO application_records (id, user_id, job_id, job_url, status, match_score, resume_customized, notes, artifact_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.UserID, record.JobID, models.NormalizeURL(record.JobURL),
		record.Status, record.MatchScore, record.ResumeCustomized,
		pq.Array(record.Notes), record.ArtifactLink, record.CreatedAt,
	)
	if err != nil {
		return errors.NewPersistenceFailedError("create application record", err)
	}
	return nil
}

// UpdateApplicationRecord reads the stored status inside a transaction
// so a concurrent writer cannot regress a terminal outcome.
func (s *PostgresStore) UpdateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistenceFailedError("begin update transaction", err)
	}
	defer tx.Rollback()

	var current models.ApplicationStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM application_records WHERE id = $1 FOR UPDATE`,
		record.ID,
	).Scan(&current)
	if err != nil {
		return errors.NewPersistenceFailedError("load application record", err)
	}

	status := record.Status
	if !current.CanTransition(status) {
		s.log.Warn("Ignoring status regression", map[string]interface{}{
			"recordId": record.ID,
			"from":     string(current),
			"to":       string(status),
		})
		status = current
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE application_records
		SET status = $2, match_score = $3, resume_customized = $4, notes = $5, artifact_link = $6
		WHERE id = $1`,
		record.ID, status, record.MatchScore, record.ResumeCustomized,
		pq.Array(record.Notes), record.ArtifactLink,
	)
	if err != nil {
		return errors.NewPersistenceFailedError("update application record", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistenceFailedError("commit update", err)
	}
	record.Status = status
	return nil
}

func (s *PostgresStore) HasApplication(ctx context.Context, userID, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM application_records WHERE user_id = $1 AND job_url = $2)`,
		userID, models.NormalizeURL(url),
	).Scan(&exists)
	if err != nil {
		return false, errors.NewPersistenceFailedError("check application existence", err)
	}
	return exists, nil
}

func (s *PostgresStore) AppliedURLs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_url FROM application_records WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("list applied urls", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, errors.NewPersistenceFailedError("scan applied url", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("iterate applied urls", err)
	}
	return urls, nil
}

func (s *PostgresStore) SaveHRContacts(ctx context.Context, jobID string, contacts []models.HRContact) error {
	var firstErr error
	for _, contact := range contacts {
		key := contact.DedupKey()
		if key == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO hr_contacts (id, job_id, dedup_key, name, email, title, company, linkedin_profile, phone, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (job_id, dedup_key) DO NOTHING`,
			uuid.New().String(), jobID, key,
			contact.Name, contact.Email, contact.Title, contact.Company,
			contact.LinkedIn, contact.Phone,
		)
		if err != nil {
			s.log.Warn("Failed to save HR contact", map[string]interface{}{
				"jobId": jobID,
				"key":   key,
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = errors.NewPersistenceFailedError("save hr contact", err)
			}
		}
	}
	return firstErr
}

func (s *PostgresStore) SaveResumeArtifact(ctx context.Context, artifact models.ResumeArtifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resume_artifacts (id, user_id, job_id, original_content, customized_content, format_type, customization_successful, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		uuid.New().String(), artifact.UserID, artifact.JobID,
		artifact.OriginalContent, artifact.CustomizedContent,
		artifact.FormatType, artifact.CustomizationSuccessful,
	)
	if err != nil {
		return errors.NewPersistenceFailedError("save resume artifact", err)
	}
	return nil
}

func (s *PostgresStore) EligibleUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, COALESCE(phone, ''), google_id, linkedin_id, automation_enabled, resume_text, COALESCE(artifact_bucket, ''), criteria
		FROM users
		WHERE automation_enabled = TRUE AND google_id <> '' AND linkedin_id <> ''
		ORDER BY id`,
	)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("list eligible users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var criteriaJSON []byte
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.GoogleID, &u.LinkedInID,
			&u.AutomationEnabled, &u.ResumeText, &u.ArtifactBucket, &criteriaJSON); err != nil {
			return nil, errors.NewPersistenceFailedError("scan eligible user", err)
		}
		if len(criteriaJSON) > 0 {
			if err := json.Unmarshal(criteriaJSON, &u.Criteria); err != nil {
				s.log.Warn("Skipping user with malformed criteria", map[string]interface{}{
					"userId": u.ID,
					"error":  err.Error(),
				})
				continue
			}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("iterate eligible users", err)
	}
	return users, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	var criteriaJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, COALESCE(phone, ''), google_id, linkedin_id, automation_enabled, resume_text, COALESCE(artifact_bucket, ''), criteria
		FROM users
		WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Email, &u.Phone, &u.GoogleID, &u.LinkedInID,
		&u.AutomationEnabled, &u.ResumeText, &u.ArtifactBucket, &criteriaJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("load user", err)
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &u.Criteria); err != nil {
			return nil, errors.NewPersistenceFailedError("decode user criteria", err)
		}
	}
	return &u, nil
}

func (s *PostgresStore) RecordRunSummary(ctx context.Context, result models.AutomationRunResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_summaries (id, user_id, found, applied, skipped, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), result.UserID, result.Found, result.Applied,
		result.Skipped, result.Errors, result.StartedAt, result.FinishedAt,
	)
	if err != nil {
		return errors.NewPersistenceFailedError("record run summary", err)
	}
	return nil
}

func (s *PostgresStore) LatestRunSummary(ctx context.Context, userID string) (*models.AutomationRunResult, error) {
	var result models.AutomationRunResult
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, found, applied, skipped, errors, started_at, finished_at
		FROM run_summaries
		WHERE user_id = $1
		ORDER BY finished_at DESC
		LIMIT 1`, userID,
	).Scan(&result.UserID, &result.Found, &result.Applied, &result.Skipped,
		&result.Errors, &result.StartedAt, &result.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("load latest run summary", err)
	}
	return &result, nil
}

// Ping verifies database reachability at startup.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
