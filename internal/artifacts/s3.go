// internal/artifacts/s3.go
package artifacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service is the slice of the S3 client the store uses, kept small
// for mocking.
type S3Service interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store uploads customized resume documents and hands back a stable
// link for the application record. Uploads are best effort: a failure
// returns an empty link and an error the caller records, never a
// pipeline abort.
type Store struct {
	client S3Service
	bucket string
	prefix string
	log    logger.Logger
}

func NewStore(client S3Service, bucket, prefix string, log logger.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log,
	}
}

// NewStoreFromRegion dials S3 with the default credential chain.
func NewStoreFromRegion(ctx context.Context, region, bucket, prefix string, log logger.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewStore(s3.NewFromConfig(awsCfg), bucket, prefix, log), nil
}

// Save uploads the customized resume text and returns its s3:// link.
// On failure it returns an empty link alongside the error.
func (s *Store) Save(ctx context.Context, artifact models.ResumeArtifact) (string, error) {
	key := s.objectKey(artifact)
	body := strings.NewReader(artifact.CustomizedContent)

	contentType := "text/plain"
	if artifact.FormatType == "pdf" {
		contentType = "application/pdf"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		s.log.Warn("Resume artifact upload failed", map[string]interface{}{
			"userId": artifact.UserID,
			"jobId":  artifact.JobID,
			"error":  err.Error(),
		})
		return "", err
	}

	link := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.log.Debug("Uploaded resume artifact", map[string]interface{}{
		"link": link,
	})
	return link, nil
}

func (s *Store) objectKey(artifact models.ResumeArtifact) string {
	name := fmt.Sprintf("%s/%s/%d.txt", artifact.UserID, artifact.JobID, time.Now().UTC().Unix())
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}
