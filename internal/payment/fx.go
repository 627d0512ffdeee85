package payment

import (
	"github.com/smallbiznis/reelgate/internal/payment/adapters"
	"github.com/smallbiznis/reelgate/internal/payment/adapters/stripe"
	"github.com/smallbiznis/reelgate/internal/payment/repository"
	paymentservice "github.com/smallbiznis/reelgate/internal/payment/service"
	"github.com/smallbiznis/reelgate/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			stripe.NewFactory(),
		)
	}),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)
