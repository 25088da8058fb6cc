// internal/sources/synthetic_test.go
package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoapply/internal/models"
)

func TestSyntheticSourceFlagsPostings(t *testing.T) {
	src := NewSyntheticSource()

	postings, err := src.Search(context.Background(), models.SearchCriteria{Keywords: []string{"golang"}, Location: "Berlin"}, 3)
	require.NoError(t, err)
	require.Len(t, postings, 3)

	for _, p := range postings {
		assert.True(t, p.Synthetic)
		assert.Equal(t, "synthetic", p.SourceTag)
		assert.Equal(t, "Golang Developer", p.Title)
		assert.Equal(t, "Berlin", p.Location)
		assert.Contains(t, p.URL, "https://jobs.example.com/")
	}
}

func TestSyntheticSourceDeterministic(t *testing.T) {
	src := NewSyntheticSource()
	criteria := models.SearchCriteria{Keywords: []string{"python"}}

	first, err := src.Search(context.Background(), criteria, 5)
	require.NoError(t, err)
	second, err := src.Search(context.Background(), criteria, 5)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].URL, second[i].URL)
		assert.Equal(t, first[i].Company, second[i].Company)
	}
}

func TestSyntheticSourceDefaults(t *testing.T) {
	src := NewSyntheticSource()

	postings, err := src.Search(context.Background(), models.SearchCriteria{}, 100)
	require.NoError(t, err)
	require.NotEmpty(t, postings)
	assert.LessOrEqual(t, len(postings), len(syntheticCompanies))
	assert.Equal(t, "Software Engineer", postings[0].Title)
	assert.Equal(t, "Remote", postings[0].Location)
}
