// internal/sources/browser.go
package sources

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

// blockSignals are URL fragments that indicate the target site redirected
// the session to a challenge or login wall.
var blockSignals = []string{"/authwall", "/checkpoint", "/challenge", "/login", "/uas/login"}

var browserJobRe = regexp.MustCompile(`<a[^>]+class="[^"]*base-card__full-link[^"]*"[^>]+href="([^"]+)"[^>]*>[\s\S]*?<span class="sr-only">\s*([^<]+?)\s*</span>`)

// BrowserSession owns one headless browser. It is an exclusively-owned
// resource per pipeline run: acquired before first use, and Close must
// run on every exit path.
type BrowserSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewBrowserSession allocates a headless browser with the configured
// identity string.
func NewBrowserSession(parent context.Context, userAgent string) *BrowserSession {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	return &BrowserSession{ctx: ctx, cancelCtx: cancelCtx, cancelAlloc: cancelAlloc}
}

// Close releases the browser. Safe to call more than once.
func (s *BrowserSession) Close() {
	if s.cancelCtx != nil {
		s.cancelCtx()
		s.cancelCtx = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
}

// SessionFactory hands the browser source a fresh session per search.
// Tests substitute a fake.
type SessionFactory func(ctx context.Context) (Navigator, func())

// Navigator is the slice of browser behavior the source needs.
type Navigator interface {
	// NavigateAndExtract loads the url and returns the final location and
	// the page HTML.
	NavigateAndExtract(ctx context.Context, url string, timeout time.Duration) (location string, html string, err error)
}

type chromedpNavigator struct {
	session *BrowserSession
}

func (n *chromedpNavigator) NavigateAndExtract(ctx context.Context, pageURL string, timeout time.Duration) (string, string, error) {
	navCtx, cancel := context.WithTimeout(n.session.ctx, timeout)
	defer cancel()

	var location, outerHTML string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &outerHTML),
	)
	return location, outerHTML, err
}

// DefaultSessionFactory builds a real chromedp-backed session.
func DefaultSessionFactory(userAgent string) SessionFactory {
	return func(ctx context.Context) (Navigator, func()) {
		session := NewBrowserSession(ctx, userAgent)
		return &chromedpNavigator{session: session}, session.Close
	}
}

// BrowserSource drives a real browser session against the primary target
// site (tier 3). Detecting a block signal trips a one-way circuit
// breaker: the tier stays unavailable for the remainder of the process
// lifetime, it is not retried per call.
type BrowserSource struct {
	enabled   bool
	targetURL string
	factory   SessionFactory
	nav       *navigator
	timeout   time.Duration
	tripped   atomic.Bool
	logger    logger.Logger
}

func NewBrowserSource(enabled bool, targetURL string, factory SessionFactory, navDelay, timeout time.Duration, log logger.Logger) *BrowserSource {
	if targetURL == "" {
		targetURL = "https://www.linkedin.com/jobs/search"
	}
	return &BrowserSource{
		enabled:   enabled,
		targetURL: targetURL,
		factory:   factory,
		nav:       newNavigator(navDelay),
		timeout:   timeout,
		logger:    log.WithFields(map[string]interface{}{"source": "browser"}),
	}
}

func (s *BrowserSource) Name() string { return "browser" }
func (s *BrowserSource) Tier() int    { return TierBrowser }

func (s *BrowserSource) Available() bool {
	return s.enabled && !s.tripped.Load()
}

func (s *BrowserSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if !s.Available() {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("browser tier unavailable"))
	}

	if err := s.nav.Wait(ctx); err != nil {
		return nil, apperrors.NewSourceTimeoutError(s.Name())
	}

	nav, release := s.factory(ctx)
	defer release()

	params := url.Values{}
	params.Set("keywords", criteria.Query())
	if criteria.Location != "" {
		params.Set("location", criteria.Location)
	}

	location, page, err := nav.NavigateAndExtract(ctx, s.targetURL+"?"+params.Encode(), s.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewSourceTimeoutError(s.Name())
		}
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}

	if signal := detectBlock(location); signal != "" {
		s.tripped.Store(true)
		s.logger.Warn("block signal detected, browser tier disabled for process lifetime", map[string]interface{}{
			"signal": signal,
		})
		return nil, apperrors.NewSourceBlockedError(s.Name(), signal)
	}

	return s.parseListings(page, limit), nil
}

func detectBlock(location string) string {
	loc := strings.ToLower(location)
	for _, signal := range blockSignals {
		if strings.Contains(loc, signal) {
			return signal
		}
	}
	return ""
}

func (s *BrowserSource) parseListings(page string, limit int) []models.JobPosting {
	var postings []models.JobPosting
	for _, m := range browserJobRe.FindAllStringSubmatch(page, -1) {
		link := html.UnescapeString(m[1])
		title := strings.TrimSpace(html.UnescapeString(m[2]))

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
