package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/reelgate/internal/clock"
	"github.com/smallbiznis/reelgate/internal/videogen/domain"
	"go.uber.org/zap"
)

type pollStub struct {
	mu      sync.Mutex
	calls   int
	results []checkResult
}

type checkResult struct {
	result *domain.StatusResult
	err    error
}

func (s *pollStub) Provider() string { return "stub" }

func (s *pollStub) Submit(ctx context.Context, input domain.SubmitInput) (*domain.JobHandle, error) {
	return &domain.JobHandle{Provider: "stub", ID: "job-1"}, nil
}

func (s *pollStub) CheckStatus(ctx context.Context, handle *domain.JobHandle) (*domain.StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	r := s.results[idx]
	return r.result, r.err
}

func (s *pollStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func running() checkResult {
	return checkResult{result: &domain.StatusResult{Status: domain.StatusRunning}}
}

func succeeded(url string) checkResult {
	return checkResult{result: &domain.StatusResult{Status: domain.StatusSucceeded, ArtifactURL: url}}
}

func newTestPoller(clk clock.Clock, cfg Config) *Poller {
	return New(clk, cfg, zap.NewNop(), nil)
}

func TestAwaitReturnsOnTerminalSuccess(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	stub := &pollStub{results: []checkResult{running(), running(), succeeded("https://cdn.example/video.mp4")}}

	p := newTestPoller(clk, Config{Interval: time.Second, Timeout: time.Minute})
	result, err := p.Await(context.Background(), stub, &domain.JobHandle{Provider: "stub", ID: "job-1"})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if result.Status != domain.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", result.Status)
	}
	if result.ArtifactURL != "https://cdn.example/video.mp4" {
		t.Fatalf("unexpected artifact url %q", result.ArtifactURL)
	}
	if stub.Calls() != 3 {
		t.Fatalf("expected 3 status checks, got %d", stub.Calls())
	}
}

func TestAwaitProviderFailureNotRetried(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	stub := &pollStub{results: []checkResult{
		{result: &domain.StatusResult{Status: domain.StatusFailed, Detail: "NSFW content detected"}},
	}}

	p := newTestPoller(clk, Config{Interval: time.Second, Timeout: time.Minute})
	result, err := p.Await(context.Background(), stub, &domain.JobHandle{Provider: "stub", ID: "job-1"})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if result.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if result.Detail != "NSFW content detected" {
		t.Fatalf("expected provider detail, got %q", result.Detail)
	}
	if stub.Calls() != 1 {
		t.Fatalf("provider failure must not be retried, got %d checks", stub.Calls())
	}
}

func TestAwaitRetriesTransportErrorsWithinBudget(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	transport := fmt.Errorf("%w: connection reset", domain.ErrBackendTransport)
	stub := &pollStub{results: []checkResult{
		{err: transport},
		{err: transport},
		succeeded("https://cdn.example/video.mp4"),
	}}

	p := newTestPoller(clk, Config{Interval: time.Second, Timeout: time.Minute, CheckRetries: 3})
	result, err := p.Await(context.Background(), stub, &domain.JobHandle{Provider: "stub", ID: "job-1"})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if result.Status != domain.StatusSucceeded {
		t.Fatalf("expected success after transient errors, got %s", result.Status)
	}
}

func TestAwaitPromotesExhaustedTransportErrors(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	transport := fmt.Errorf("%w: connection reset", domain.ErrBackendTransport)
	stub := &pollStub{results: []checkResult{{err: transport}}}

	p := newTestPoller(clk, Config{Interval: time.Second, Timeout: time.Hour, CheckRetries: 2})
	_, err := p.Await(context.Background(), stub, &domain.JobHandle{Provider: "stub", ID: "job-1"})
	if err == nil {
		t.Fatalf("expected error after retry budget exhausted")
	}
	if !errors.Is(err, domain.ErrBackendTransport) {
		t.Fatalf("expected transport error kind, got %v", err)
	}
	if stub.Calls() != 3 {
		t.Fatalf("expected initial check plus 2 retries, got %d", stub.Calls())
	}
}

func TestAwaitTimesOut(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	stub := &pollStub{results: []checkResult{running()}}

	p := newTestPoller(clk, Config{Interval: time.Second, Timeout: 5 * time.Second})
	_, err := p.Await(context.Background(), stub, &domain.JobHandle{Provider: "stub", ID: "job-1"})
	if !errors.Is(err, domain.ErrPollTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if stub.Calls() < 2 {
		t.Fatalf("expected multiple checks before timeout, got %d", stub.Calls())
	}
}
