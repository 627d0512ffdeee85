package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/reelgate/internal/observability/metrics"
	"github.com/smallbiznis/reelgate/internal/videogen/domain"
	"github.com/smallbiznis/reelgate/internal/videogen/poller"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Every generation costs one credit, debited only after terminal success.
const generationCost = 1

// Seeds live in [0, 1e9); caller-supplied values are echoed unchanged.
const seedBound = 1_000_000_000

type Params struct {
	fx.In

	Backend domain.Backend
	Ledger  ledgerdomain.Service
	Poller  *poller.Poller
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	backend domain.Backend
	ledger  ledgerdomain.Service
	poller  *poller.Poller
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		backend: p.Backend,
		ledger:  p.Ledger,
		poller:  p.Poller,
		log:     p.Log.Named("videogen.service"),
		metrics: p.Metrics,
	}
}

// Generate gates the provider call on a positive balance and debits one
// credit only after the job reaches terminal success. The debit is
// conditional; when a concurrent spend drains the balance first, the
// artifact is still returned with DebitFailed set because the provider
// work cannot be undone.
func (s *Service) Generate(ctx context.Context, req domain.Request) (*domain.Result, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrInvalidPrompt
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < generationCost {
		s.recordGeneration(ctx, "insufficient_credit")
		return nil, domain.ErrInsufficientCredit
	}

	seed := resolveSeed(req.Seed)

	// The job keeps running and the debit decision is still made even
	// when the caller disconnects mid-generation.
	jobCtx := context.WithoutCancel(ctx)

	artifact, err := s.run(jobCtx, domain.SubmitInput{Prompt: req.Prompt, Seed: seed})
	if err != nil {
		s.recordGeneration(jobCtx, "failed")
		return nil, err
	}

	applied, err := s.ledger.TryDebit(jobCtx, userID, generationCost)
	if err != nil {
		return nil, err
	}

	result := &domain.Result{
		ArtifactURL: artifact.URL,
		Seed:        artifact.Seed,
		DebitFailed: !applied,
	}

	if applied {
		s.recordDebit(jobCtx, "applied")
	} else {
		s.recordDebit(jobCtx, "lost_race")
		s.log.Warn("debit lost race after successful generation",
			zap.String("user_id", userID),
			zap.String("provider", s.backend.Provider()),
		)
	}

	remaining, err := s.ledger.Balance(jobCtx, userID)
	if err != nil {
		return nil, err
	}
	result.RemainingBalance = remaining

	s.recordGeneration(jobCtx, "succeeded")
	return result, nil
}

// run drives the backend to a terminal state, normalizing both adapter
// shapes into a single artifact.
func (s *Service) run(ctx context.Context, input domain.SubmitInput) (*domain.Artifact, error) {
	switch backend := s.backend.(type) {
	case domain.ImmediateBackend:
		return backend.Submit(ctx, input)

	case domain.PollBackend:
		handle, err := backend.Submit(ctx, input)
		if err != nil {
			return nil, err
		}

		s.log.Info("generation started",
			zap.String("provider", handle.Provider),
			zap.String("job_id", handle.ID),
		)

		status, err := s.poller.Await(ctx, backend, handle)
		if err != nil {
			return nil, err
		}
		if status.Status != domain.StatusSucceeded {
			detail := status.Detail
			if detail == "" {
				detail = "generation failed"
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrBackendFailure, detail)
		}
		if status.ArtifactURL == "" {
			return nil, fmt.Errorf("%w: job succeeded without an artifact url", domain.ErrBackendFailure)
		}

		return &domain.Artifact{URL: status.ArtifactURL, Seed: input.Seed}, nil

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, s.backend.Provider())
	}
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return rand.Int64N(seedBound)
}

func (s *Service) recordGeneration(ctx context.Context, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGeneration(ctx, s.backend.Provider(), outcome)
}

func (s *Service) recordDebit(ctx context.Context, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGenerationDebit(ctx, result)
}
