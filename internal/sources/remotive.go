// internal/sources/remotive.go
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// RemotiveSource queries the public remote-jobs board (tier 1, no
// credentials required).
type RemotiveSource struct {
	enabled bool
	client  *http.Client
	logger  logger.Logger
}

func NewRemotiveSource(enabled bool, timeout time.Duration, log logger.Logger) *RemotiveSource {
	return &RemotiveSource{
		enabled: enabled,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithFields(map[string]interface{}{"source": "remotive"}),
	}
}

func (s *RemotiveSource) Name() string    { return "remotive" }
func (s *RemotiveSource) Tier() int       { return TierStructured }
func (s *RemotiveSource) Available() bool { return s.enabled }

type remotiveResponse struct {
	Jobs []struct {
		ID                        int    `json:"id"`
		Title                     string `json:"title"`
		CompanyName               string `json:"company_name"`
		URL                       string `json:"url"`
		CandidateRequiredLocation string `json:"candidate_required_location"`
		Description               string `json:"description"`
		PublicationDate           string `json:"publication_date"`
	} `json:"jobs"`
}

func (s *RemotiveSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if !s.enabled {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("disabled"))
	}

	params := url.Values{}
	params.Set("search", criteria.Query())
	params.Set("limit", fmt.Sprint(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remotiveBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewSourceTimeoutError(s.Name())
		}
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewSourceBadPayloadError(s.Name(), err.Error())
	}

	postings := make([]models.JobPosting, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		raw := rawPosting{
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.CandidateRequiredLocation,
			URL:         j.URL,
			Description: j.Description,
		}
		if err := validatePosting(s.Name(), raw); err != nil {
			s.logger.Warn("rejected malformed posting", map[string]interface{}{"error": err})
			continue
		}

		posted, _ := time.Parse("2006-01-02T15:04:05", j.PublicationDate)
		postings = append(postings, models.JobPosting{
			SourceID:    fmt.Sprint(j.ID),
			Title:       raw.Title,
			Company:     raw.Company,
			Location:    raw.Location,
			URL:         models.NormalizeURL(raw.URL),
			Description: raw.Description,
			PostedAt:    posted,
			SourceTag:   s.Name(),
		})
		if len(postings) >= limit {
			break
		}
	}

	return postings, nil
}
