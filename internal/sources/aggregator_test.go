// internal/sources/aggregator_test.go
package sources

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

// fakeSource is a scriptable Source for exercising the escalation rules.
type fakeSource struct {
	name      string
	tier      int
	available bool
	postings  []models.JobPosting
	err       error
	panics    bool
	calls     int
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) Tier() int       { return f.tier }
func (f *fakeSource) Available() bool { return f.available }

func (f *fakeSource) Search(_ context.Context, _ models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	f.calls++
	if f.panics {
		panic("fake source blew up")
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.postings) > limit {
		return f.postings[:limit], nil
	}
	return f.postings, nil
}

func makePostings(prefix string, n int) []models.JobPosting {
	postings := make([]models.JobPosting, 0, n)
	for i := 0; i < n; i++ {
		postings = append(postings, models.JobPosting{
			Title: fmt.Sprintf("%s role %d", prefix, i+1),
			URL:   fmt.Sprintf("https://example.com/%s/%d", prefix, i+1),
		})
	}
	return postings
}

var testCriteria = models.SearchCriteria{Keywords: []string{"golang"}, Location: "Remote"}

func TestAggregatorEscalatesThroughTiers(t *testing.T) {
	structured := &fakeSource{name: "adzuna", tier: TierStructured, available: true, err: fmt.Errorf("503 from upstream")}
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, postings: makePostings("scrape", 4)}
	browser := &fakeSource{name: "browser", tier: TierBrowser, available: true, postings: makePostings("browser", 4)}
	synthetic := &fakeSource{name: "synthetic", tier: TierSynthetic, available: true, postings: makePostings("synthetic", 5)}

	agg := NewAggregator(3, logger.NewTestLogger(t), structured, scrape, browser, synthetic)
	pool := agg.Search(context.Background(), testCriteria, 10)

	assert.Len(t, pool, 4)
	assert.Equal(t, 1, structured.calls)
	assert.Equal(t, 1, scrape.calls)
	// Scrape satisfied the minimum pool size, so the more expensive
	// tiers are never consulted.
	assert.Equal(t, 0, browser.calls)
	assert.Equal(t, 0, synthetic.calls)
}

func TestAggregatorEscalatesBelowMinimumPool(t *testing.T) {
	// Tier 2 answers but stays below the minimum pool, so the browser
	// tier is still consulted; one real posting from it keeps the
	// synthetic tier out.
	structured := &fakeSource{name: "adzuna", tier: TierStructured, available: true}
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, postings: makePostings("scrape", 2)}
	browser := &fakeSource{name: "browser", tier: TierBrowser, available: true, postings: makePostings("browser", 1)}
	synthetic := &fakeSource{name: "synthetic", tier: TierSynthetic, available: true, postings: makePostings("synthetic", 5)}

	agg := NewAggregator(3, logger.NewTestLogger(t), structured, scrape, browser, synthetic)
	pool := agg.Search(context.Background(), testCriteria, 10)

	assert.Len(t, pool, 3)
	assert.Equal(t, 1, scrape.calls)
	assert.Equal(t, 1, browser.calls)
	assert.Equal(t, 0, synthetic.calls)
}

func TestAggregatorSyntheticOnlyWhenPoolEmpty(t *testing.T) {
	structured := &fakeSource{name: "adzuna", tier: TierStructured, available: true, postings: makePostings("adzuna", 1)}
	synthetic := &fakeSource{name: "synthetic", tier: TierSynthetic, available: true, postings: makePostings("synthetic", 5)}

	agg := NewAggregator(3, logger.NewTestLogger(t), structured, synthetic)
	pool := agg.Search(context.Background(), testCriteria, 10)

	// One real posting beats five synthetic ones.
	assert.Len(t, pool, 1)
	assert.Equal(t, 0, synthetic.calls)
}

func TestAggregatorSyntheticFillsEmptyPool(t *testing.T) {
	structured := &fakeSource{name: "adzuna", tier: TierStructured, available: true, err: fmt.Errorf("down")}
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, err: fmt.Errorf("also down")}
	synthetic := &fakeSource{name: "synthetic", tier: TierSynthetic, available: true, postings: makePostings("synthetic", 5)}

	agg := NewAggregator(3, logger.NewTestLogger(t), structured, scrape, synthetic)
	pool := agg.Search(context.Background(), testCriteria, 10)

	assert.Len(t, pool, 5)
	assert.Equal(t, 1, synthetic.calls)
}

func TestAggregatorIsolatesPanics(t *testing.T) {
	panicky := &fakeSource{name: "adzuna", tier: TierStructured, available: true, panics: true}
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, postings: makePostings("scrape", 3)}

	agg := NewAggregator(3, logger.NewTestLogger(t), panicky, scrape)

	var pool []models.JobPosting
	assert.NotPanics(t, func() {
		pool = agg.Search(context.Background(), testCriteria, 10)
	})
	assert.Len(t, pool, 3)
}

func TestAggregatorSkipsUnavailableSources(t *testing.T) {
	unconfigured := &fakeSource{name: "naukri", tier: TierStructured, available: false, postings: makePostings("naukri", 5)}
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, postings: makePostings("scrape", 3)}

	agg := NewAggregator(3, logger.NewTestLogger(t), unconfigured, scrape)
	pool := agg.Search(context.Background(), testCriteria, 10)

	assert.Equal(t, 0, unconfigured.calls)
	assert.Len(t, pool, 3)
}

func TestAggregatorTrimsToLimit(t *testing.T) {
	a := &fakeSource{name: "adzuna", tier: TierStructured, available: true, postings: makePostings("adzuna", 2)}
	b := &fakeSource{name: "index", tier: TierStructured, available: true, postings: makePostings("index", 5)}

	agg := NewAggregator(3, logger.NewTestLogger(t), a, b)
	pool := agg.Search(context.Background(), testCriteria, 4)

	assert.Len(t, pool, 4)
}

func TestAggregatorSortsChainByTier(t *testing.T) {
	// Registration order is tier 2 then tier 1; structured must still
	// run first.
	var order []string
	scrape := &fakeSource{name: "scrape", tier: TierScrape, available: true, err: fmt.Errorf("down")}
	structured := &fakeSource{name: "adzuna", tier: TierStructured, available: true, err: fmt.Errorf("down")}

	agg := NewAggregator(3, logger.NewTestLogger(t), &orderingSource{fakeSource: scrape, order: &order}, &orderingSource{fakeSource: structured, order: &order})
	agg.Search(context.Background(), testCriteria, 5)

	assert.Equal(t, []string{"adzuna", "scrape"}, order)
}

type orderingSource struct {
	*fakeSource
	order *[]string
}

func (o *orderingSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	*o.order = append(*o.order, o.name)
	return o.fakeSource.Search(ctx, criteria, limit)
}

func TestAggregatorZeroLimit(t *testing.T) {
	src := &fakeSource{name: "adzuna", tier: TierStructured, available: true, postings: makePostings("adzuna", 2)}

	agg := NewAggregator(3, logger.NewTestLogger(t), src)
	assert.Empty(t, agg.Search(context.Background(), testCriteria, 0))
	assert.Equal(t, 0, src.calls)
}
