package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleDefaultTimeout = 60 * time.Second
	googleDefaultModel   = "gemini-2.5-flash-image"
	googleDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GoogleOptions configure a GoogleGenerator.
type GoogleOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GoogleGenerator renders images through the Gemini image model.
type GoogleGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type googleImageRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inlineData,omitempty"`
}

type googleInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type googleGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type googleImageResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func NewGoogleGenerator(opts GoogleOptions) (*GoogleGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("google api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = googleDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = googleDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: googleDefaultTimeout}
	}
	return &GoogleGenerator{apiKey: opts.APIKey, model: model, baseURL: baseURL, client: client}, nil
}

func (g *GoogleGenerator) GenerateDataURI(ctx context.Context, req PromptRequest) (string, error) {
	payload := googleImageRequest{
		Contents: []googleContent{{
			Role:  "user",
			Parts: []googlePart{{Text: req.Prompt + "\nAspect ratio: " + req.AspectRatio}},
		}},
		GenerationConfig: googleGenerationConfig{ResponseModalities: []string{"IMAGE"}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
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
	var out googleImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	for _, cand := range out.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," + part.InlineData.Data, nil
			}
		}
	}
	return "", errors.New("response carried no image data")
}

// providerHTTPError folds the status line and a body excerpt into one error so
// quota classification can inspect both.
func providerHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	excerpt := strings.TrimSpace(string(body))
	if excerpt == "" {
		return fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), excerpt)
}

var _ Generator = (*GoogleGenerator)(nil)
