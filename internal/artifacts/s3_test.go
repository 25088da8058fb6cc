// internal/artifacts/s3_test.go
package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	err       error
	lastInput *s3.PutObjectInput
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestSave(t *testing.T) {
	t.Run("successful upload returns link", func(t *testing.T) {
		mock := &mockS3{}
		store := NewStore(mock, "resume-bucket", "artifacts", logger.NewTestLogger(t))

		link, err := store.Save(context.Background(), models.ResumeArtifact{
			UserID:            "user-1",
			JobID:             "job-1",
			CustomizedContent: "tailored resume",
			FormatType:        "text",
		})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link, "s3://resume-bucket/artifacts/user-1/job-1/"))

		require.NotNil(t, mock.lastInput)
		body, err := io.ReadAll(mock.lastInput.Body)
		require.NoError(t, err)
		assert.Equal(t, "tailored resume", string(body))
	})

	t.Run("upload failure yields empty link", func(t *testing.T) {
		mock := &mockS3{err: fmt.Errorf("access denied")}
		store := NewStore(mock, "resume-bucket", "", logger.NewTestLogger(t))

		link, err := store.Save(context.Background(), models.ResumeArtifact{
			UserID:            "user-1",
			JobID:             "job-1",
			CustomizedContent: "tailored resume",
		})

		require.Error(t, err)
		assert.Empty(t, link)
	})
}
