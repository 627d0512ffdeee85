package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/reelgate/internal/videogen/domain"
)

const defaultBaseURL = "https://api.minimax.io"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "minimax"
}

func (f *Factory) NewBackend(cfg domain.BackendConfig) (domain.Backend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "video-01"
	}

	return &Backend{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		groupID: strings.TrimSpace(cfg.GroupID),
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Backend drives the MiniMax video generation API: submit returns a
// task id, the query endpoint reports status and, once done, the
// artifact URL in videos[0].url.
type Backend struct {
	apiKey     string
	groupID    string
	baseURL    string
	model      string
	httpClient *http.Client
}

func (b *Backend) Provider() string {
	return "minimax"
}

type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type submitResponse struct {
	TaskID   string   `json:"task_id"`
	BaseResp baseResp `json:"base_resp"`
}

type statusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Videos []struct {
		URL string `json:"url"`
	} `json:"videos"`
	BaseResp baseResp `json:"base_resp"`
}

func (b *Backend) Submit(ctx context.Context, input domain.SubmitInput) (*domain.JobHandle, error) {
	if b.apiKey == "" || b.groupID == "" {
		return nil, fmt.Errorf("%w: minimax api key and group id", domain.ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":  b.model,
		"prompt": input.Prompt,
		"seed":   input.Seed,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/video_generation?GroupId=%s", b.baseURL, url.QueryEscape(b.groupID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
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

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.TaskID == "" {
		detail := parsed.BaseResp.StatusMsg
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d starting task", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendFailure, detail)
	}

	return &domain.JobHandle{
		Provider: b.Provider(),
		ID:       parsed.TaskID,
	}, nil
}

func (b *Backend) CheckStatus(ctx context.Context, handle *domain.JobHandle) (*domain.StatusResult, error) {
	if b.apiKey == "" || b.groupID == "" {
		return nil, fmt.Errorf("%w: minimax api key and group id", domain.ErrNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/v1/query/video_generation?task_id=%s", b.baseURL, url.QueryEscape(handle.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}
	defer resp.Body.Close()

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := parsed.BaseResp.StatusMsg
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d checking task", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendTransport, detail)
	}

	switch strings.ToLower(parsed.Status) {
	case "success":
		if len(parsed.Videos) == 0 || parsed.Videos[0].URL == "" {
			return nil, fmt.Errorf("%w: task succeeded without a video url", domain.ErrBackendFailure)
		}
		return &domain.StatusResult{
			Status:      domain.StatusSucceeded,
			ArtifactURL: parsed.Videos[0].URL,
		}, nil
	case "fail", "failed":
		detail := parsed.BaseResp.StatusMsg
		if detail == "" {
			detail = "task failed"
		}
		return &domain.StatusResult{
			Status: domain.StatusFailed,
			Detail: detail,
		}, nil
	default:
		return &domain.StatusResult{Status: domain.StatusRunning}, nil
	}
}
