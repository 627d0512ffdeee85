package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/reelgate/internal/videogen/domain"
)

const defaultBaseURL = "https://api.replicate.com"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "replicate"
}

func (f *Factory) NewBackend(cfg domain.BackendConfig) (domain.Backend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Backend{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		version: strings.TrimSpace(cfg.Model),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Backend drives the Replicate predictions API: one POST to start a
// prediction, then repeated GETs on the returned status URL.
type Backend struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
}

func (b *Backend) Provider() string {
	return "replicate"
}

type prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	// Output is a bare URL string for video models but an array of
	// URLs for some image models; decode both.
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	Detail string          `json:"detail"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (b *Backend) Submit(ctx context.Context, input domain.SubmitInput) (*domain.JobHandle, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("%w: replicate api key", domain.ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]interface{}{
		"version": b.version,
		"input": map[string]interface{}{
			"prompt": input.Prompt,
			"seed":   input.Seed,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}
	defer resp.Body.Close()

	var pred prediction
	if err := decodeBody(resp.Body, &pred); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}

	if resp.StatusCode != http.StatusCreated {
		detail := pred.Detail
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d starting prediction", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendFailure, detail)
	}

	return &domain.JobHandle{
		Provider:  b.Provider(),
		ID:        pred.ID,
		StatusURL: pred.URLs.Get,
	}, nil
}

func (b *Backend) CheckStatus(ctx context.Context, handle *domain.JobHandle) (*domain.StatusResult, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("%w: replicate api key", domain.ErrNotConfigured)
	}

	statusURL := handle.StatusURL
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/v1/predictions/%s", b.baseURL, handle.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}
	defer resp.Body.Close()

	var pred prediction
	if err := decodeBody(resp.Body, &pred); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := pred.Detail
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d checking prediction", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendTransport, detail)
	}

	switch pred.Status {
	case "succeeded":
		return &domain.StatusResult{
			Status:      domain.StatusSucceeded,
			ArtifactURL: outputURL(pred.Output),
		}, nil
	case "failed", "canceled":
		return &domain.StatusResult{
			Status: domain.StatusFailed,
			Detail: pred.Error,
		}, nil
	default:
		return &domain.StatusResult{Status: domain.StatusRunning}, nil
	}
}

func decodeBody(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func outputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[len(many)-1]
	}

	return ""
}
