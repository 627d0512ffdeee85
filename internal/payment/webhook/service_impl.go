package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/smallbiznis/reelgate/internal/config"
	"github.com/smallbiznis/reelgate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	paymentservice "github.com/smallbiznis/reelgate/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	PaymentSvc *paymentservice.Service
	Adapters   *adapters.Registry
	Cfg        config.Config
}

type Service struct {
	log        *zap.Logger
	paymentSvc *paymentservice.Service
	adapters   *adapters.Registry
	cfg        config.Config
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		log:        p.Log.Named("payment.webhook"),
		paymentSvc: p.PaymentSvc,
		adapters:   p.Adapters,
		cfg:        p.Cfg,
	}
}

// IngestWebhook verifies, parses and processes one provider delivery.
// Signature verification happens on the raw body before any parsing.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if s.adapters == nil || !s.adapters.ProviderExists(provider) {
		return paymentdomain.ErrProviderNotFound
	}

	adapter, err := s.newAdapter(provider)
	if err != nil {
		return err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			return nil
		}
		if errors.Is(err, paymentdomain.ErrInvalidUser) {
			s.log.Warn("payment webhook missing user mapping", zap.String("provider", provider))
		}
		return err
	}

	if event.RawPayload == nil {
		event.RawPayload = payload
	}
	return s.paymentSvc.ProcessEvent(ctx, event, payload)
}

// CreateCheckoutSession starts a hosted checkout for a credit bundle.
func (s *Service) CreateCheckoutSession(ctx context.Context, provider string, userID, email string, credits int64) (*paymentdomain.CheckoutSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, paymentdomain.ErrInvalidUser
	}
	if credits <= 0 {
		return nil, paymentdomain.ErrInvalidCredits
	}

	adapter, err := s.newAdapter(provider)
	if err != nil {
		return nil, err
	}

	return adapter.CreateCheckoutSession(ctx, paymentdomain.CheckoutInput{
		UserID:          userID,
		Email:           email,
		Credits:         credits,
		UnitAmountCents: s.cfg.Stripe.CreditPriceCents,
		Currency:        s.cfg.Stripe.Currency,
	})
}

func (s *Service) newAdapter(provider string) (paymentdomain.PaymentAdapter, error) {
	return s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
		SecretKey:     s.cfg.Stripe.SecretKey,
		WebhookSecret: s.cfg.Stripe.WebhookSecret,
		SuccessURL:    s.cfg.Stripe.SuccessURL,
		CancelURL:     s.cfg.Stripe.CancelURL,
	})
}
