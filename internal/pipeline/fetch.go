// internal/pipeline/fetch.go
package pipeline

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"autoapply/internal/common/httpx"
	"autoapply/internal/models"
)

// DescriptionFetcher retrieves the full description text for a posting
// whose source only returned a teaser.
type DescriptionFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

const maxDescriptionBytes = 16 * 1024

// HTTPDescriptionFetcher pulls the posting page and reduces it to text.
type HTTPDescriptionFetcher struct {
	client *httpx.Client
}

func NewHTTPDescriptionFetcher(client *httpx.Client) *HTTPDescriptionFetcher {
	return &HTTPDescriptionFetcher{client: client}
}

func (f *HTTPDescriptionFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("posting page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionBytes))
	if err != nil {
		return "", err
	}

	text := scriptRe.ReplaceAllString(string(body), " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), nil
}

// synthesizeDescription builds the minimal stand-in description used
// when the posting page cannot be fetched.
func synthesizeDescription(posting models.JobPosting) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %s", posting.Title, posting.Company)
	if posting.Location != "" {
		fmt.Fprintf(&sb, " (%s)", posting.Location)
	}
	sb.WriteString(". Full description unavailable; evaluated from the posting summary.")
	return sb.String()
}
