package auth

import (
	"github.com/smallbiznis/reelgate/internal/auth/domain"
	"github.com/smallbiznis/reelgate/internal/auth/service"
	"github.com/smallbiznis/reelgate/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(func(cfg config.Config, p service.Params) domain.Verifier {
		return service.NewVerifier(cfg.AuthDomain, p)
	}),
)
