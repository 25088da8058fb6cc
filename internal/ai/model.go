// internal/ai/model.go
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Model is the text-generation surface the gateway depends on.
// Production uses Gemini; tests substitute a stub.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiModel wraps the Gemini SDK behind the Model interface.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiModel dials the Gemini API with the given key and model name.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("model returned empty response")
	}
	return out, nil
}

func (g *GeminiModel) Close() error {
	return g.client.Close()
}
