// internal/sources/source.go
package sources

import (
	"context"

	"autoapply/internal/models"
)

// Tier ranks sources by reliability and cost in the fallback order.
const (
	TierStructured = 1 // authenticated board APIs and the internal index
	TierScrape     = 2 // unauthenticated HTTP retrieval
	TierBrowser    = 3 // automated browser session
	TierSynthetic  = 4 // deterministic mock fallback
)

// Source is one external provider of job postings. The aggregator walks
// sources as a chain of responsibility; a source must be cheap to ask for
// availability so that unconfigured sources can be skipped silently.
type Source interface {
	Name() string
	Tier() int

	// Available reports whether the source can be queried at all: it is
	// false when credentials are missing or a circuit breaker has tripped.
	Available() bool

	// Search returns up to limit normalized postings. Errors escalate to
	// the next source; they never reach the aggregator's caller.
	Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error)
}
