package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/reelgate/internal/clock"
	obsmetrics "github.com/smallbiznis/reelgate/internal/observability/metrics"
	"github.com/smallbiznis/reelgate/internal/videogen/domain"
	"go.uber.org/zap"
)

const (
	DefaultInterval     = time.Second
	DefaultTimeout      = 5 * time.Minute
	DefaultCheckRetries = 3
)

// Poller drives a poll-based job to a terminal state with a fixed
// inter-check delay, a finite wall-clock ceiling and a bounded retry
// budget for transport errors. It is the only component that
// deliberately suspends.
type Poller struct {
	clk        clock.Clock
	interval   time.Duration
	timeout    time.Duration
	maxRetries int
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
}

type Config struct {
	Interval     time.Duration
	Timeout      time.Duration
	CheckRetries int
}

func New(clk clock.Clock, cfg Config, log *zap.Logger, metrics *obsmetrics.Metrics) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := cfg.CheckRetries
	if retries < 0 {
		retries = DefaultCheckRetries
	}

	return &Poller{
		clk:        clk,
		interval:   interval,
		timeout:    timeout,
		maxRetries: retries,
		log:        log.Named("videogen.poller"),
		metrics:    metrics,
	}
}

// Await polls until the job is terminal or the ceiling is exceeded.
// On timeout the job is abandoned and a Failed result is synthesized;
// the provider offers no cancellation path. Transport errors are
// retried with the same delay up to the retry budget, then promoted to
// a failure distinct from a provider-reported one.
func (p *Poller) Await(ctx context.Context, backend domain.PollBackend, handle *domain.JobHandle) (*domain.StatusResult, error) {
	deadline := p.clk.Now().Add(p.timeout)
	transportFailures := 0

	for {
		result, err := backend.CheckStatus(ctx, handle)
		switch {
		case err == nil:
			transportFailures = 0
			if result.Status.Terminal() {
				p.recordCheck(ctx, handle.Provider, string(result.Status))
				return result, nil
			}
			p.recordCheck(ctx, handle.Provider, "running")

		case errors.Is(err, domain.ErrBackendTransport):
			transportFailures++
			p.recordCheck(ctx, handle.Provider, "transport_error")
			p.log.Warn("status check failed",
				zap.String("provider", handle.Provider),
				zap.String("job_id", handle.ID),
				zap.Int("consecutive_failures", transportFailures),
				zap.Error(err),
			)
			if transportFailures > p.maxRetries {
				return nil, fmt.Errorf("status checks exhausted after %d attempts: %w", transportFailures, err)
			}

		default:
			// Provider-reported or configuration error; not retried.
			p.recordCheck(ctx, handle.Provider, "error")
			return nil, err
		}

		if p.clk.Now().Add(p.interval).After(deadline) {
			p.log.Warn("job abandoned on timeout",
				zap.String("provider", handle.Provider),
				zap.String("job_id", handle.ID),
				zap.Duration("timeout", p.timeout),
			)
			return nil, fmt.Errorf("%w after %s", domain.ErrPollTimeout, p.timeout)
		}

		p.clk.Sleep(p.interval)
	}
}

func (p *Poller) recordCheck(ctx context.Context, provider, result string) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordPollCheck(ctx, provider, result)
}
