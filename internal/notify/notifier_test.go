// internal/notify/notifier_test.go
package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	err   error
	calls []*ses.SendEmailInput
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	err   error
	calls []*sns.PublishInput
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func testUser() models.User {
	return models.User{
		ID:    "user-1",
		Email: "user@example.com",
		Phone: "+15550100",
	}
}

func TestNotifyApplication(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	notifier := NewNotifier(Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		SenderEmail:  "bot@example.com",
	}, sesMock, snsMock, logger.NewTestLogger(t))

	err := notifier.NotifyApplication(context.Background(), testUser(),
		models.JobPosting{Title: "Backend Engineer", Company: "Acme", URL: "https://jobs.acme.com/1"},
		models.ApplicationRecord{MatchScore: 81, ResumeCustomized: true, ArtifactLink: "s3://b/k"},
	)

	require.NoError(t, err)
	require.Len(t, sesMock.calls, 1)
	assert.Contains(t, *sesMock.calls[0].Message.Subject.Data, "Backend Engineer")
	assert.Contains(t, *sesMock.calls[0].Message.Body.Text.Data, "Match score: 81")
	// Per-application mail is not urgent; no SMS.
	assert.Empty(t, snsMock.calls)
}

func TestNotifyRunComplete(t *testing.T) {
	tests := []struct {
		name     string
		result   models.AutomationRunResult
		wantSMS  bool
		wantMail bool
	}{
		{
			name:     "normal run is email only",
			result:   models.AutomationRunResult{Found: 5, Applied: 3},
			wantMail: true,
		},
		{
			name:     "all-error run escalates to SMS",
			result:   models.AutomationRunResult{Found: 5, Applied: 0, Errors: 5},
			wantMail: true,
			wantSMS:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sesMock := &mockSES{}
			snsMock := &mockSNS{}
			notifier := NewNotifier(Config{
				EmailEnabled: true,
				SMSEnabled:   true,
				SenderEmail:  "bot@example.com",
			}, sesMock, snsMock, logger.NewTestLogger(t))

			tt.result.StartedAt = time.Now().Add(-time.Minute)
			tt.result.FinishedAt = time.Now()

			err := notifier.NotifyRunComplete(context.Background(), testUser(), tt.result)

			require.NoError(t, err)
			assert.Equal(t, tt.wantMail, len(sesMock.calls) == 1)
			assert.Equal(t, tt.wantSMS, len(snsMock.calls) == 1)
		})
	}
}

func TestSendFailureIsReportedNotFatal(t *testing.T) {
	sesMock := &mockSES{err: fmt.Errorf("ses throttled")}
	notifier := NewNotifier(Config{
		EmailEnabled: true,
		SenderEmail:  "bot@example.com",
	}, sesMock, &mockSNS{}, logger.NewTestLogger(t))

	err := notifier.NotifyApplication(context.Background(), testUser(),
		models.JobPosting{Title: "Engineer"}, models.ApplicationRecord{})

	require.Error(t, err)
}

func TestDisabledChannelsSendNothing(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	notifier := NewNotifier(Config{}, sesMock, snsMock, logger.NewTestLogger(t))

	err := notifier.NotifyRunComplete(context.Background(), testUser(),
		models.AutomationRunResult{Errors: 3})

	require.NoError(t, err)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}
