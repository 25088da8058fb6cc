// internal/sources/validate_test.go
package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "autoapply/internal/common/errors"
)

func TestValidatePosting(t *testing.T) {
	tests := []struct {
		name    string
		raw     rawPosting
		wantErr bool
	}{
		{
			name: "complete posting",
			raw:  rawPosting{Title: "Go Engineer", Company: "Acme", Location: "Remote", URL: "https://example.com/jobs/1", Description: "do things"},
		},
		{
			name: "title and url only",
			raw:  rawPosting{Title: "Go Engineer", URL: "https://example.com/jobs/1"},
		},
		{
			name:    "missing title",
			raw:     rawPosting{URL: "https://example.com/jobs/1"},
			wantErr: true,
		},
		{
			name:    "empty title",
			raw:     rawPosting{Title: "", URL: "https://example.com/jobs/1"},
			wantErr: true,
		},
		{
			name:    "missing url",
			raw:     rawPosting{Title: "Go Engineer"},
			wantErr: true,
		},
		{
			name:    "url too short",
			raw:     rawPosting{Title: "Go Engineer", URL: "http://"},
			wantErr: true,
		},
		{
			name:    "relative url",
			raw:     rawPosting{Title: "Go Engineer", URL: "/jobs/view/1234"},
			wantErr: true,
		},
		{
			name: "http scheme accepted",
			raw:  rawPosting{Title: "Go Engineer", URL: "http://example.com/jobs/1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePosting("test", tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeSourceBadPayload, apperrors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
