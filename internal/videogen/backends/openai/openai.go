package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/reelgate/internal/videogen/domain"
)

const defaultBaseURL = "https://api.openai.com"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "openai"
}

func (f *Factory) NewBackend(cfg domain.BackendConfig) (domain.Backend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "dall-e-3"
	}

	return &Backend{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Backend is the immediate shape: a single generations call either
// yields a usable artifact URL or fails. The provider has no seed
// parameter; the seed still travels with the result for the caller.
type Backend struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func (b *Backend) Provider() string {
	return "openai"
}

type generationsResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *Backend) Submit(ctx context.Context, input domain.SubmitInput) (*domain.Artifact, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key", domain.ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":  b.model,
		"prompt": input.Prompt,
		"n":      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}
	defer resp.Body.Close()

	var parsed generationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			detail = parsed.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendFailure, detail)
	}

	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: response contained no artifact url", domain.ErrBackendFailure)
	}

	return &domain.Artifact{
		URL:  parsed.Data[0].URL,
		Seed: input.Seed,
	}, nil
}
