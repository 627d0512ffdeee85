package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/reelgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("ocr: api key not configured")
	ErrInvalidInput  = errors.New("ocr: image url or base64 payload required")
	ErrUpstream      = errors.New("ocr: upstream error")
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Service is a stateless passthrough to the OCR provider; nothing is
// persisted and no credits are involved.
type Service struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

// Input carries exactly one of URL or Base64Image.
type Input struct {
	URL         string
	Base64Image string
	Language    string
}

type Result struct {
	Text string
}

func NewService(p Params) *Service {
	return &Service{
		apiKey:   p.Cfg.OCR.APIKey,
		endpoint: p.Cfg.OCR.Endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: p.Log.Named("ocr.service"),
	}
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          anyField `json:"ErrorMessage"`
}

// ErrorMessage is a string on some responses and an array on others.
type anyField []string

func (f *anyField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = anyField{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*f = anyField(many)
		return nil
	}
	*f = nil
	return nil
}

func (s *Service) Parse(ctx context.Context, input Input) (*Result, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	imageURL := strings.TrimSpace(input.URL)
	base64Image := strings.TrimSpace(input.Base64Image)
	if imageURL == "" && base64Image == "" {
		return nil, ErrInvalidInput
	}

	form := url.Values{}
	form.Set("apikey", s.apiKey)
	if imageURL != "" {
		form.Set("url", imageURL)
	} else {
		form.Set("base64Image", base64Image)
	}
	if lang := strings.TrimSpace(input.Language); lang != "" {
		form.Set("language", lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.IsErroredOnProcessing {
		detail := "processing failed"
		if len(parsed.ErrorMessage) > 0 {
			detail = parsed.ErrorMessage[0]
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, detail)
	}

	var text strings.Builder
	for _, result := range parsed.ParsedResults {
		text.WriteString(result.ParsedText)
	}

	return &Result{Text: text.String()}, nil
}
