// internal/sources/naukri.go
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

// naukriDefaultBaseURL is a stand-in endpoint: the board exposes its
// search only through partner gateways, so deployments must point
// base_url at their gateway. With the default in place the tier is
// skipped at request time like any other unreachable source.
const naukriDefaultBaseURL = "https://api.naukri.example.com/v1/search"

// indiaSignals gate the regional board: it is only worth querying when
// the search location matches the board's market.
var indiaSignals = []string{
	"india", "bangalore", "bengaluru", "mumbai", "delhi", "hyderabad",
	"chennai", "pune", "gurgaon", "noida", "kolkata",
}

// NaukriSource is the region-specific board API (tier 1), queried only
// when location carries an India signal.
type NaukriSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewNaukriSource(apiKey, baseURL string, timeout time.Duration, log logger.Logger) *NaukriSource {
	if baseURL == "" {
		baseURL = naukriDefaultBaseURL
	}
	return &NaukriSource{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithFields(map[string]interface{}{"source": "naukri"}),
	}
}

func (s *NaukriSource) Name() string { return "naukri" }
func (s *NaukriSource) Tier() int    { return TierStructured }

func (s *NaukriSource) Available() bool {
	return s.apiKey != ""
}

// MatchesRegion reports whether this board should be consulted for the
// given criteria at all.
func MatchesRegion(location string) bool {
	loc := strings.ToLower(location)
	for _, signal := range indiaSignals {
		if strings.Contains(loc, signal) {
			return true
		}
	}
	return false
}

type naukriResponse struct {
	Jobs []struct {
		JobID       string `json:"jobId"`
		Title       string `json:"title"`
		CompanyName string `json:"companyName"`
		City        string `json:"city"`
		JDURL       string `json:"jdUrl"`
		Description string `json:"jobDescription"`
		CreatedDate string `json:"createdDate"`
	} `json:"jobs"`
}

func (s *NaukriSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if !s.Available() {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("api key not configured"))
	}
	if !MatchesRegion(criteria.Location) {
		return nil, nil
	}

	params := url.Values{}
	params.Set("keywords", criteria.Query())
	params.Set("location", criteria.Location)
	params.Set("limit", fmt.Sprint(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

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

	var payload naukriResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewSourceBadPayloadError(s.Name(), err.Error())
	}

	postings := make([]models.JobPosting, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		raw := rawPosting{
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.City,
			URL:         j.JDURL,
			Description: j.Description,
		}
		if err := validatePosting(s.Name(), raw); err != nil {
			s.logger.Warn("rejected malformed posting", map[string]interface{}{"error": err})
			continue
		}

		posted, _ := time.Parse("2006-01-02", j.CreatedDate)
		postings = append(postings, models.JobPosting{
			SourceID:    j.JobID,
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
