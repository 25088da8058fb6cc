// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"autoapply/internal/common/errors"
	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Config controls the channels and sender identity.
type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	SenderEmail  string
	AWSRegion    string
}

// Notifier sends per-application and per-run notifications over SES
// and SNS. Sends are best effort: a channel failure is logged and
// reported to the caller but never aborts the pipeline.
type Notifier struct {
	config    Config
	sesClient SESService
	snsClient SNSService
	log       logger.Logger
}

func NewNotifier(config Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		log:       log,
	}
}

// NewNotifierFromRegion dials SES and SNS with the default chain.
func NewNotifierFromRegion(ctx context.Context, config Config, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewNotifier(config, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), log), nil
}

// NotifyApplication tells the user one application record was created.
func (n *Notifier) NotifyApplication(ctx context.Context, user models.User, posting models.JobPosting, record models.ApplicationRecord) error {
	subject := fmt.Sprintf("Applied: %s at %s", posting.Title, posting.Company)
	body := n.applicationBody(posting, record)
	return n.send(ctx, user, subject, body, false)
}

// NotifyRunComplete sends the end-of-run summary. High error counts
// also go out over SMS when the channel is enabled.
func (n *Notifier) NotifyRunComplete(ctx context.Context, user models.User, result models.AutomationRunResult) error {
	subject := fmt.Sprintf("Job run finished: %d applied, %d found", result.Applied, result.Found)
	body := n.summaryBody(result)
	urgent := result.Errors > 0 && result.Applied == 0
	return n.send(ctx, user, subject, body, urgent)
}

func (n *Notifier) send(ctx context.Context, user models.User, subject, body string, urgent bool) error {
	var firstErr error

	if n.config.EmailEnabled && user.Email != "" {
		if err := n.sendEmail(ctx, user.Email, subject, body); err != nil {
			n.log.Error("Email send failed", map[string]interface{}{
				"userId": user.ID,
				"error":  err.Error(),
			})
			firstErr = errors.NewNotificationSendFailedError(err)
		}
	}

	if n.config.SMSEnabled && user.Phone != "" && urgent {
		if err := n.sendSMS(ctx, user.Phone, subject); err != nil {
			n.log.Error("SMS send failed", map[string]interface{}{
				"userId": user.ID,
				"error":  err.Error(),
			})
			if firstErr == nil {
				firstErr = errors.NewNotificationSendFailedError(err)
			}
		}
	}

	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.SenderEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, phone, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	})
	return err
}

func (n *Notifier) applicationBody(posting models.JobPosting, record models.ApplicationRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Position: %s\nCompany: %s\nLocation: %s\nLink: %s\n",
		posting.Title, posting.Company, posting.Location, posting.URL)
	fmt.Fprintf(&sb, "Match score: %d\n", record.MatchScore)
	if record.ResumeCustomized {
		sb.WriteString("Resume: customized for this role\n")
	} else {
		sb.WriteString("Resume: original submitted\n")
	}
	if record.ArtifactLink != "" {
		fmt.Fprintf(&sb, "Artifact: %s\n", record.ArtifactLink)
	}
	if len(record.Notes) > 0 {
		fmt.Fprintf(&sb, "\nNotes:\n- %s\n", strings.Join(record.Notes, "\n- "))
	}
	return sb.String()
}

func (n *Notifier) summaryBody(result models.AutomationRunResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run window: %s .. %s\n",
		result.StartedAt.Format("15:04:05"), result.FinishedAt.Format("15:04:05"))
	fmt.Fprintf(&sb, "Found: %d\nApplied: %d\nSkipped: %d\nErrors: %d\n",
		result.Found, result.Applied, result.Skipped, result.Errors)
	return sb.String()
}
