// internal/sources/adzuna.go
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 25
)

// AdzunaSource queries the Adzuna multi-board API (tier 1). Without
// credentials it reports unavailable and the aggregator skips it.
type AdzunaSource struct {
	appID   string
	appKey  string
	country string
	client  *http.Client
	logger  logger.Logger
}

func NewAdzunaSource(appID, appKey, country string, timeout time.Duration, log logger.Logger) *AdzunaSource {
	if country == "" {
		country = "us"
	}
	return &AdzunaSource{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithFields(map[string]interface{}{"source": "adzuna"}),
	}
}

func (s *AdzunaSource) Name() string { return "adzuna" }
func (s *AdzunaSource) Tier() int    { return TierStructured }

func (s *AdzunaSource) Available() bool {
	return s.appID != "" && s.appKey != ""
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	RedirectURL  string `json:"redirect_url"`
	Created      string `json:"created"`
	ContractTime string `json:"contract_time"`
}

func (s *AdzunaSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if !s.Available() {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("credentials not configured"))
	}

	endpoint := fmt.Sprintf("%s/%s/search/1", adzunaBaseURL, s.country)

	params := url.Values{}
	params.Set("app_id", s.appID)
	params.Set("app_key", s.appKey)
	params.Set("what", criteria.Query())
	params.Set("results_per_page", fmt.Sprint(adzunaPageSize))
	params.Set("sort_by", "date")
	params.Set("content-type", "application/json")
	if criteria.Location != "" && !criteria.RemoteOnly() {
		params.Set("where", criteria.Location)
	}
	if criteria.Type == models.JobTypeFullTime {
		params.Set("full_time", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
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
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, apperrors.NewSourceUnavailableError(s.Name(),
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewSourceBadPayloadError(s.Name(), err.Error())
	}

	postings := make([]models.JobPosting, 0, len(payload.Results))
	for _, r := range payload.Results {
		raw := rawPosting{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			URL:         r.RedirectURL,
			Description: r.Description,
		}
		if err := validatePosting(s.Name(), raw); err != nil {
			s.logger.Warn("rejected malformed posting", map[string]interface{}{"error": err})
			continue
		}

		posted, _ := time.Parse("2006-01-02T15:04:05Z", r.Created)
		postings = append(postings, models.JobPosting{
			SourceID:    r.ID,
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
