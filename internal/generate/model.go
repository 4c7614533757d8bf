package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Model is one provider endpoint able to answer a prompt with text.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

const temperature = 0.1

type GeminiModel struct {
	client   *genai.Client
	model    string
	keyIndex int
}

func NewGeminiModel(ctx context.Context, apiKey, model string, keyIndex int) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{client: client, model: model, keyIndex: keyIndex}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s returned an empty response", m.model)
	}
	return text, nil
}

func (m *GeminiModel) Name() string {
	return fmt.Sprintf("%s (key %d)", m.model, m.keyIndex+1)
}

// OpenAIModel talks to any OpenAI compatible chat completion endpoint.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, baseURL, model string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}
}

func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a SQL expert. Answer with JSON only."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", m.model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *OpenAIModel) Name() string {
	return m.model
}

// Candidates builds the ordered fallback list: every model for the first
// key, then every model for the next key.
func Candidates(ctx context.Context, provider string, keys, models []string, baseURL string) ([]Model, error) {
	var candidates []Model
	for i, key := range keys {
		for _, name := range models {
			switch provider {
			case "gemini", "":
				m, err := NewGeminiModel(ctx, key, name, i)
				if err != nil {
					return nil, err
				}
				candidates = append(candidates, m)
			case "openai":
				candidates = append(candidates, NewOpenAIModel(key, baseURL, name))
			default:
				return nil, fmt.Errorf("unknown provider %q", provider)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no models configured")
	}
	return candidates, nil
}

// IsRateLimited reports whether err is a provider throttling or quota error.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "resourceexhausted", "quota", "rate limit", "rate-limit", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
