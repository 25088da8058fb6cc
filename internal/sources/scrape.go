// internal/sources/scrape.go
package sources

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/httpx"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

const (
	duckDuckGoURL  = "https://html.duckduckgo.com/html/"
	weWorkRemotely = "https://weworkremotely.com/remote-jobs/search"
	targetSite     = "linkedin.com/jobs"
)

// navigator serializes tier-2/3 navigations and enforces the fixed
// politeness delay between successive requests.
type navigator struct {
	mu       sync.Mutex
	lastNav  time.Time
	minDelay time.Duration
}

func newNavigator(minDelay time.Duration) *navigator {
	return &navigator{minDelay: minDelay}
}

// Wait blocks until the minimum delay since the previous navigation has
// elapsed, or the context is cancelled.
func (n *navigator) Wait(ctx context.Context) error {
	n.mu.Lock()
	last := n.lastNav
	now := time.Now()

	if last.IsZero() || now.Sub(last) >= n.minDelay {
		n.lastNav = now
		n.mu.Unlock()
		return nil
	}

	remaining := n.minDelay - now.Sub(last)
	n.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
	}

	n.mu.Lock()
	n.lastNav = time.Now()
	n.mu.Unlock()
	return nil
}

// ScrapeSource is the unauthenticated HTTP tier: a search-engine-mediated
// lookup of the primary target site, falling back to a public job board's
// HTML listing. All parsing is deliberately tolerant; any failure
// escalates to the next tier.
type ScrapeSource struct {
	client *httpx.Client
	nav    *navigator
	logger logger.Logger
}

func NewScrapeSource(client *httpx.Client, navDelay time.Duration, log logger.Logger) *ScrapeSource {
	return &ScrapeSource{
		client: client,
		nav:    newNavigator(navDelay),
		logger: log.WithFields(map[string]interface{}{"source": "scrape"}),
	}
}

func (s *ScrapeSource) Name() string    { return "scrape" }
func (s *ScrapeSource) Tier() int       { return TierScrape }
func (s *ScrapeSource) Available() bool { return true }

var (
	ddgResultRe = regexp.MustCompile(`<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	wwrJobRe    = regexp.MustCompile(`<a href="(/remote-jobs/[^"]+)"[^>]*>[\s\S]*?<span class="title">([^<]+)</span>[\s\S]*?<span class="company">([^<]+)</span>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

func (s *ScrapeSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	postings, err := s.searchEngine(ctx, criteria, limit)
	if err != nil {
		s.logger.Warn("search-engine lookup failed, trying public board", map[string]interface{}{"error": err})
	}
	if len(postings) >= limit {
		return postings[:limit], nil
	}

	boardPostings, boardErr := s.publicBoard(ctx, criteria, limit-len(postings))
	if boardErr != nil {
		if len(postings) == 0 {
			return nil, boardErr
		}
		s.logger.Warn("public board lookup failed", map[string]interface{}{"error": boardErr})
	}

	return append(postings, boardPostings...), nil
}

// searchEngine runs a site-scoped query through DuckDuckGo's HTML
// endpoint and keeps only links into the target job site.
func (s *ScrapeSource) searchEngine(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if err := s.nav.Wait(ctx); err != nil {
		return nil, apperrors.NewSourceTimeoutError(s.Name())
	}

	q := fmt.Sprintf("site:%s %s %s", targetSite, criteria.Query(), criteria.Location)
	resp, err := s.client.Get(ctx, duckDuckGoURL+"?q="+url.QueryEscape(strings.TrimSpace(q)))
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

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}

	return s.parseEngineResults(string(body), limit), nil
}

func (s *ScrapeSource) parseEngineResults(page string, limit int) []models.JobPosting {
	var postings []models.JobPosting
	for _, m := range ddgResultRe.FindAllStringSubmatch(page, -1) {
		link := html.UnescapeString(m[1])
		link = unwrapRedirect(link)
		if !strings.Contains(link, targetSite) {
			continue
		}

		title := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(m[2], "")))
		raw := rawPosting{Title: title, URL: link}
		if err := validatePosting(s.Name(), raw); err != nil {
			continue
		}

		postings = append(postings, models.JobPosting{
			Title:     title,
			URL:       models.NormalizeURL(link),
			SourceTag: s.Name(),
		})
		if len(postings) >= limit {
			break
		}
	}
	return postings
}

// unwrapRedirect extracts the destination from DuckDuckGo's /l/?uddg=
// redirect links.
func unwrapRedirect(link string) string {
	if !strings.Contains(link, "uddg=") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	return link
}

// publicBoard scrapes the secondary public job board's HTML search page.
func (s *ScrapeSource) publicBoard(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := s.nav.Wait(ctx); err != nil {
		return nil, apperrors.NewSourceTimeoutError(s.Name())
	}

	resp, err := s.client.Get(ctx, weWorkRemotely+"?term="+url.QueryEscape(criteria.Query()))
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

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}

	var postings []models.JobPosting
	for _, m := range wwrJobRe.FindAllStringSubmatch(string(body), -1) {
		link := "https://weworkremotely.com" + m[1]
		title := strings.TrimSpace(html.UnescapeString(m[2]))
		company := strings.TrimSpace(html.UnescapeString(m[3]))

		raw := rawPosting{Title: title, Company: company, URL: link}
		if err := validatePosting(s.Name(), raw); err != nil {
			continue
		}

		postings = append(postings, models.JobPosting{
			Title:     title,
			Company:   company,
			Location:  "Remote",
			URL:       models.NormalizeURL(link),
			SourceTag: s.Name(),
		})
		if len(postings) >= limit {
			break
		}
	}

	return postings, nil
}
