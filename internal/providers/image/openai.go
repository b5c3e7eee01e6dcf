package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	openaiDefaultTimeout = 90 * time.Second
	openaiDefaultModel   = "dall-e-3"
	openaiDefaultBaseURL = "https://api.openai.com"
)

// OpenAIOptions configure an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator renders images through the OpenAI images endpoint.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openaiImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type openaiImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
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
	return &OpenAIGenerator{apiKey: opts.APIKey, model: model, baseURL: baseURL, client: client}, nil
}

func (g *OpenAIGenerator) GenerateDataURI(ctx context.Context, req PromptRequest) (string, error) {
	payload := openaiImageRequest{
		Model:          g.model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           sizeForAspect(req.AspectRatio),
		ResponseFormat: "b64_json",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/images/generations", &buf)
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
		return "", providerHTTPError(resp)
	}
	var out openaiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return "", errors.New("response carried no image data")
	}
	return "data:image/png;base64," + out.Data[0].B64JSON, nil
}

func sizeForAspect(aspect string) string {
	switch aspect {
	case "16:9", "4:3":
		return "1792x1024"
	case "9:16", "3:4":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

var _ Generator = (*OpenAIGenerator)(nil)
