// internal/sources/naukri_test.go
package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
)

func TestMatchesRegion(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"Bangalore", true},
		{"bengaluru", true},
		{"Mumbai, India", true},
		{"NOIDA", true},
		{"Remote", false},
		{"Berlin", false},
		{"London", false},
		{"", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, MatchesRegion(tc.location), tc.location)
	}
}

func TestNaukriSourceSkipsForeignRegions(t *testing.T) {
	src := NewNaukriSource("key", "", time.Second, logger.NewTestLogger(t))

	// A non-India location must short-circuit before any network call.
	postings, err := src.Search(context.Background(), models.SearchCriteria{Keywords: []string{"golang"}, Location: "Berlin"}, 5)
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestNaukriSourceAvailability(t *testing.T) {
	assert.False(t, NewNaukriSource("", "", time.Second, logger.NewTestLogger(t)).Available())
	assert.True(t, NewNaukriSource("key", "", time.Second, logger.NewTestLogger(t)).Available())

	_, err := NewNaukriSource("", "", time.Second, logger.NewTestLogger(t)).Search(context.Background(), models.SearchCriteria{Location: "Pune"}, 5)
	assert.Error(t, err)
}

func TestNaukriSourceSearchViaGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "golang", r.URL.Query().Get("keywords"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs":[
			{"jobId":"n-1","title":"Go Developer","companyName":"Acme","city":"Pune","jdUrl":"https://jobs.acme.in/1","jobDescription":"build services","createdDate":"2026-08-20"},
			{"jobId":"n-2","title":"","companyName":"Acme","city":"Pune","jdUrl":"https://jobs.acme.in/2"}
		]}`))
	}))
	defer srv.Close()

	src := NewNaukriSource("key", srv.URL, time.Second, logger.NewTestLogger(t))

	postings, err := src.Search(context.Background(), models.SearchCriteria{Keywords: []string{"golang"}, Location: "Pune"}, 5)
	require.NoError(t, err)
	// The empty-title item is rejected at the validation boundary.
	require.Len(t, postings, 1)
	assert.Equal(t, "n-1", postings[0].SourceID)
	assert.Equal(t, "Go Developer", postings[0].Title)
	assert.Equal(t, "https://jobs.acme.in/1", postings[0].URL)
	assert.Equal(t, "naukri", postings[0].SourceTag)
}
