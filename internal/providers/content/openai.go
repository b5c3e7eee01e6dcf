package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

const (
	openaiDefaultTimeout = 120 * time.Second
	openaiDefaultModel   = "gpt-4o-mini"
	openaiDefaultBaseURL = "https://api.openai.com"
)

// OpenAIOptions configure an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Generator
}

// OpenAIGenerator drafts documents through the OpenAI chat completions API.
type OpenAIGenerator struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	fallback Generator
}

type openaiChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openaiChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = openaiDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openaiDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openaiDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:   opts.APIKey,
		model:    model,
		baseURL:  baseURL,
		client:   client,
		fallback: opts.Fallback,
	}, nil
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, payload domain.GeneratePayload, seed int) (string, error) {
	text, err := g.draft(ctx, payload, seed)
	if err != nil {
		if g.fallback == nil {
			return "", err
		}
		return g.fallback.Generate(ctx, payload, seed)
	}
	return text, nil
}

func (g *OpenAIGenerator) draft(ctx context.Context, payload domain.GeneratePayload, seed int) (string, error) {
	body := openaiChatRequest{
		Model: g.model,
		Messages: []openaiChatMessage{
			{Role: "system", Content: "You are an academic writing assistant. Respond with markdown only."},
			{Role: "user", Content: BuildPrompt(payload, seed)},
		},
		Temperature: 0.6,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	var out openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("openai: response carried no text")
	}
	return StripCodeFences(out.Choices[0].Message.Content), nil
}

var _ Generator = (*OpenAIGenerator)(nil)
