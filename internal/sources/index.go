// internal/sources/index.go
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

// IndexSource queries the internal Elasticsearch posting index (tier 1).
// The index is populated as postings are persisted, so it is the cheapest
// place to find postings that earlier runs already discovered for other
// users.
type IndexSource struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexSource(es *elasticsearch.Client, index string, log logger.Logger) *IndexSource {
	return &IndexSource{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"source": "index"}),
	}
}

func (s *IndexSource) Name() string    { return "index" }
func (s *IndexSource) Tier() int       { return TierStructured }
func (s *IndexSource) Available() bool { return s.es != nil }

// indexedPosting mirrors the document shape written by the store.
type indexedPosting struct {
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	PostedAt    time.Time `json:"posted_at"`
	SourceTag   string    `json:"source_tag"`
}

func (s *IndexSource) Search(ctx context.Context, criteria models.SearchCriteria, limit int) ([]models.JobPosting, error) {
	if s.es == nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("elasticsearch not configured"))
	}

	must := []map[string]interface{}{
		{"match": map[string]interface{}{"title": criteria.Query()}},
	}
	if criteria.Location != "" && !criteria.RemoteOnly() {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"location": criteria.Location},
		})
	}

	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"posted_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewSourceTimeoutError(s.Name())
		}
		return nil, apperrors.NewSourceUnavailableError(s.Name(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSourceUnavailableError(s.Name(), fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source indexedPosting `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSourceBadPayloadError(s.Name(), err.Error())
	}

	postings := make([]models.JobPosting, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		if doc.URL == "" || doc.Title == "" {
			continue
		}
		postings = append(postings, models.JobPosting{
			SourceID:    doc.SourceID,
			Title:       doc.Title,
			Company:     doc.Company,
			Location:    doc.Location,
			URL:         models.NormalizeURL(doc.URL),
			Description: doc.Description,
			PostedAt:    doc.PostedAt,
			SourceTag:   s.Name(),
		})
	}

	return postings, nil
}
