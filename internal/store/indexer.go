// internal/store/indexer.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"autoapply/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ESIndexer mirrors job postings into the internal posting index that
// the first-tier source queries.
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

type postingDocument struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PostedAt    string `json:"posted_at"`
	SourceTag   string `json:"source_tag"`
}

func (i *ESIndexer) IndexPosting(ctx context.Context, jobID string, posting models.JobPosting) error {
	doc := postingDocument{
		Title:       posting.Title,
		Company:     posting.Company,
		Location:    posting.Location,
		URL:         models.NormalizeURL(posting.URL),
		Description: posting.Description,
		PostedAt:    posting.PostedAt.UTC().Format("2006-01-02T15:04:05Z"),
		SourceTag:   posting.SourceTag,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal posting document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: jobID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("failed to index posting: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("posting index rejected document: %s", res.Status())
	}
	return nil
}
