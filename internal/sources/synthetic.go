// internal/sources/synthetic.go
package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoapply/internal/models"
)

// SyntheticSource is the terminal fallback: deterministic, clearly
// flagged mock postings so the caller always receives a non-empty,
// explorable result set when every real source fails.
type SyntheticSource struct{}

func NewSyntheticSource() *SyntheticSource { return &SyntheticSource{} }

func (s *SyntheticSource) Name() string    { return "synthetic" }
func (s *SyntheticSource) Tier() int       { return TierSynthetic }
func (s *SyntheticSource) Available() bool { return true }

var syntheticCompanies = []string{"Acme Corp", "Initech", "Globex", "Umbrella Labs", "Stark Industries"}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *SyntheticSource) Search(_ context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	role := "Software Engineer"
	if len(criteria.Keywords) > 0 {
		role = titleCase(criteria.Keywords[0]) + " Developer"
	}
	location := criteria.Location
	if location == "" {
		location = "Remote"
	}

	n := limit
	if n > len(syntheticCompanies) {
		n = len(syntheticCompanies)
	}

	postings := make([]models.JobPosting, 0, n)
	for i := 0; i < n; i++ {
		company := syntheticCompanies[i]
		slug := strings.ToLower(strings.ReplaceAll(company, " ", "-"))
		postings = append(postings, models.JobPosting{
			SourceID: fmt.Sprintf("synthetic-%d", i+1),
			Title:    role,
			Company:  company,
			Location: location,
			URL:      fmt.Sprintf("https://jobs.example.com/%s/%d", slug, i+1),
			Description: fmt.Sprintf(
				"%s is looking for a %s in %s. This is a sample listing generated because no live source returned results.",
				company, role, location),
			PostedAt:  time.Now().UTC().Truncate(24 * time.Hour),
			SourceTag: s.Name(),
			Synthetic: true,
		})
	}

	return postings, nil
}
