// internal/sources/scrape_test.go
package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoapply/internal/common/httpx"
	"autoapply/internal/common/logger"
)

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "ddg redirect",
			link: "//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fjobs%2Fview%2F1234&rut=abc",
			want: "https://www.linkedin.com/jobs/view/1234",
		},
		{
			name: "direct link untouched",
			link: "https://www.linkedin.com/jobs/view/1234",
			want: "https://www.linkedin.com/jobs/view/1234",
		},
		{
			name: "empty uddg falls through",
			link: "https://duckduckgo.com/l/?uddg=",
			want: "https://duckduckgo.com/l/?uddg=",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, unwrapRedirect(tc.link))
		})
	}
}

const ddgPage = `
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fjobs%2Fview%2F2001">Senior <b>Go</b> Engineer</a>
</div>
<div class="result">
  <a class="result__a" href="https://unrelated.example.com/page">Off-site result</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.linkedin.com/jobs/view/2002">Platform Engineer</a>
</div>`

func TestParseEngineResults(t *testing.T) {
	src := NewScrapeSource(httpx.NewClient(time.Second, "test-agent"), 0, logger.NewTestLogger(t))

	postings := src.parseEngineResults(ddgPage, 10)
	require.Len(t, postings, 2)
	// Markup inside the anchor is stripped, off-site links dropped.
	assert.Equal(t, "Senior Go Engineer", postings[0].Title)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/2001", postings[0].URL)
	assert.Equal(t, "Platform Engineer", postings[1].Title)
	assert.Equal(t, "scrape", postings[1].SourceTag)
}

func TestParseEngineResultsLimit(t *testing.T) {
	src := NewScrapeSource(httpx.NewClient(time.Second, "test-agent"), 0, logger.NewTestLogger(t))

	postings := src.parseEngineResults(ddgPage, 1)
	assert.Len(t, postings, 1)
}

func TestNavigatorWait(t *testing.T) {
	nav := newNavigator(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, nav.Wait(context.Background()))
	require.NoError(t, nav.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestNavigatorWaitCancelled(t *testing.T) {
	nav := newNavigator(time.Minute)
	require.NoError(t, nav.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, nav.Wait(ctx))
}
