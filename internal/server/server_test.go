// internal/server/server_test.go
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
	"autoapply/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	result models.AutomationRunResult
	events []models.ProgressEvent
	ran    chan string
}

func (f *fakeRunner) Run(ctx context.Context, user models.User, capped bool, sink pipeline.EventSink) models.AutomationRunResult {
	for _, event := range f.events {
		if sink != nil {
			sink.Emit(event)
		}
	}
	if f.ran != nil {
		f.ran <- user.ID
	}
	return f.result
}

type serverStore struct {
	users   map[string]*models.User
	applied map[string]bool
	summary *models.AutomationRunResult
}

func (s *serverStore) UpsertJobPosting(ctx context.Context, posting models.JobPosting) (string, error) {
	return "", nil
}
func (s *serverStore) CreateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error {
	return nil
}
func (s *serverStore) UpdateApplicationRecord(ctx context.Context, record *models.ApplicationRecord) error {
	return nil
}
func (s *serverStore) HasApplication(ctx context.Context, userID, url string) (bool, error) {
	return s.applied[userID+"|"+models.NormalizeURL(url)], nil
}
func (s *serverStore) AppliedURLs(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (s *serverStore) SaveHRContacts(ctx context.Context, jobID string, contacts []models.HRContact) error {
	return nil
}
func (s *serverStore) SaveResumeArtifact(ctx context.Context, artifact models.ResumeArtifact) error {
	return nil
}
func (s *serverStore) EligibleUsers(ctx context.Context) ([]models.User, error) {
	return nil, nil
}
func (s *serverStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users[userID], nil
}
func (s *serverStore) RecordRunSummary(ctx context.Context, result models.AutomationRunResult) error {
	return nil
}
func (s *serverStore) LatestRunSummary(ctx context.Context, userID string) (*models.AutomationRunResult, error) {
	return s.summary, nil
}

func newTestServer(runner *fakeRunner, st *serverStore, t *testing.T) *Server {
	return New(":0", runner, st, logger.NewTestLogger(t))
}

func TestTriggerRun(t *testing.T) {
	ran := make(chan string, 1)
	runner := &fakeRunner{ran: ran}
	st := &serverStore{users: map[string]*models.User{"user-1": {ID: "user-1"}}}
	srv := newTestServer(runner, st, t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/user-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case userID := <-ran:
		assert.Equal(t, "user-1", userID)
	case <-time.After(time.Second):
		t.Fatal("background run never started")
	}
}

func TestTriggerRunUnknownUser(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &serverStore{users: map[string]*models.User{}}, t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/nobody", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckApplication(t *testing.T) {
	st := &serverStore{
		applied: map[string]bool{"user-1|https://jobs.acme.com/1": true},
	}
	srv := newTestServer(&fakeRunner{}, st, t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/applications/check?user=user-1&url=https://jobs.acme.com/1/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["applied"])
}

func TestCheckApplicationMissingParams(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &serverStore{}, t)

	req := httptest.NewRequest(http.MethodGet, "/api/applications/check?user=user-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestRun(t *testing.T) {
	t.Run("stored summary", func(t *testing.T) {
		st := &serverStore{summary: &models.AutomationRunResult{UserID: "user-1", Applied: 2}}
		srv := newTestServer(&fakeRunner{}, st, t)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/user-1/latest", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var summary models.AutomationRunResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.Applied)
	})

	t.Run("no runs yet", func(t *testing.T) {
		srv := newTestServer(&fakeRunner{}, &serverStore{}, t)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/user-1/latest", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStreamRun(t *testing.T) {
	events := []models.ProgressEvent{
		{Type: models.EventJobFound, UserID: "user-1", Job: &models.JobPosting{Title: "Engineer"}},
		{Type: models.EventJobDone, UserID: "user-1"},
		{Type: models.EventRunComplete, UserID: "user-1", Summary: &models.AutomationRunResult{Applied: 1}},
	}
	runner := &fakeRunner{events: events}
	st := &serverStore{users: map[string]*models.User{"user-1": {ID: "user-1"}}}
	srv := newTestServer(runner, st, t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/user-1/stream", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var eventNames []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventNames = append(eventNames, strings.TrimPrefix(line, "event: "))
		}
	}
	assert.Equal(t, []string{"job-found", "job-done", "run-complete"}, eventNames)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &serverStore{}, t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
