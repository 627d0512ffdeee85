package videogen

import (
	"fmt"

	"github.com/smallbiznis/reelgate/internal/clock"
	"github.com/smallbiznis/reelgate/internal/config"
	obsmetrics "github.com/smallbiznis/reelgate/internal/observability/metrics"
	"github.com/smallbiznis/reelgate/internal/videogen/backends"
	"github.com/smallbiznis/reelgate/internal/videogen/backends/minimax"
	"github.com/smallbiznis/reelgate/internal/videogen/backends/openai"
	"github.com/smallbiznis/reelgate/internal/videogen/backends/replicate"
	"github.com/smallbiznis/reelgate/internal/videogen/domain"
	"github.com/smallbiznis/reelgate/internal/videogen/poller"
	"github.com/smallbiznis/reelgate/internal/videogen/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("videogen",
	fx.Provide(NewRegistry),
	fx.Provide(NewBackend),
	fx.Provide(NewPoller),
	fx.Provide(service.NewService),
)

func NewRegistry() *backends.Registry {
	return backends.NewRegistry(
		replicate.NewFactory(),
		minimax.NewFactory(),
		openai.NewFactory(),
	)
}

// NewBackend resolves the configured provider once at startup. Missing
// credentials are tolerated here and rejected per request, so the
// service still boots for unrelated endpoints.
func NewBackend(cfg config.Config, registry *backends.Registry, log *zap.Logger) (domain.Backend, error) {
	provider := cfg.Video.Provider
	if !registry.ProviderExists(provider) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, provider)
	}

	backend, err := registry.NewBackend(provider, backendConfig(provider, cfg.Video))
	if err != nil {
		return nil, err
	}

	log.Named("videogen").Info("generation backend configured",
		zap.String("provider", provider),
	)
	return backend, nil
}

func NewPoller(cfg config.Config, clk clock.Clock, log *zap.Logger, metrics *obsmetrics.Metrics) *poller.Poller {
	return poller.New(clk, poller.Config{
		Interval:     cfg.Video.PollInterval,
		Timeout:      cfg.Video.PollTimeout,
		CheckRetries: cfg.Video.CheckRetries,
	}, log, metrics)
}

func backendConfig(provider string, video config.VideoConfig) domain.BackendConfig {
	switch provider {
	case "replicate":
		return domain.BackendConfig{
			APIKey: video.ReplicateAPIKey,
			Model:  video.ReplicateModelVersion,
		}
	case "minimax":
		return domain.BackendConfig{
			APIKey:  video.MinimaxAPIKey,
			GroupID: video.MinimaxGroupID,
		}
	case "openai":
		return domain.BackendConfig{
			APIKey: video.OpenAIAPIKey,
			Model:  video.OpenAIModel,
		}
	default:
		return domain.BackendConfig{}
	}
}
