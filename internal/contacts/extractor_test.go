// internal/contacts/extractor_test.go
package contacts

import (
	"testing"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantCount   int
		check       func(t *testing.T, contacts []models.HRContact)
	}{
		{
			name:        "email with recruiter name",
			description: "Great role. Contact Jane Doe at jane.doe@acme.com or call 415-555-0134.",
			wantCount:   1,
			check: func(t *testing.T, contacts []models.HRContact) {
				assert.Equal(t, "jane.doe@acme.com", contacts[0].Email)
				assert.Equal(t, "Jane Doe", contacts[0].Name)
				assert.NotEmpty(t, contacts[0].Phone)
			},
		},
		{
			name:        "linkedin profile only",
			description: "Apply via https://www.linkedin.com/in/recruiter-bob for details.",
			wantCount:   1,
			check: func(t *testing.T, contacts []models.HRContact) {
				assert.Equal(t, "https://linkedin.com/in/recruiter-bob", contacts[0].LinkedIn)
			},
		},
		{
			name:        "noreply addresses are skipped",
			description: "Questions? Email noreply@jobs.acme.com.",
			wantCount:   0,
		},
		{
			name:        "duplicate emails collapse",
			description: "Email hr@acme.com today. Again: hr@acme.com.",
			wantCount:   1,
		},
		{
			name:        "email and distinct profile give two contacts",
			description: "hr@acme.com or linkedin.com/in/acme-talent",
			wantCount:   2,
		},
		{
			name:        "bare recruiter name is kept",
			description: "Reach out to John Smith for this position.",
			wantCount:   1,
			check: func(t *testing.T, contacts []models.HRContact) {
				assert.Equal(t, "John Smith", contacts[0].Name)
				assert.Empty(t, contacts[0].Email)
			},
		},
		{
			name:        "no signal yields nothing",
			description: "We are hiring engineers across all levels.",
			wantCount:   0,
		},
		{
			name:        "empty description yields nothing",
			description: "",
			wantCount:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor(logger.NewTestLogger(t))
			posting := models.JobPosting{
				Title:       "Backend Engineer",
				Company:     "Acme",
				URL:         "https://jobs.example.com/1",
				Description: tt.description,
			}

			contacts := extractor.Extract(posting)

			require.Len(t, contacts, tt.wantCount)
			for _, c := range contacts {
				assert.Equal(t, "Acme", c.Company)
				assert.NotEmpty(t, c.DedupKey())
			}
			if tt.check != nil {
				tt.check(t, contacts)
			}
		})
	}
}
