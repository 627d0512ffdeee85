package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/reelgate/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	LedgerSvc  ledgerdomain.Service
	Repo       paymentdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	ledgerSvc  ledgerdomain.Service
	repo       paymentdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		ledgerSvc:  p.LedgerSvc,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

// ProcessEvent records the event and applies its credit exactly once.
// The conditional insert on (provider, provider_event_id) decides who
// owns the event; re-deliveries of a processed event return
// ErrEventAlreadyProcessed and touch no balance.
func (s *Service) ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent, payload []byte) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	if event.Provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	now := time.Now().UTC()
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		UserID:          event.UserID,
		Credits:         event.Credits,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	if !inserted {
		// Another delivery owns this event id; it credits, we don't.
		// Record whether the owner has finished so a stuck event shows
		// up in the logs instead of silently re-acknowledging forever.
		stored, findErr := s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if findErr != nil {
			s.log.Warn("duplicate event lookup failed",
				zap.String("provider", event.Provider),
				zap.String("provider_event_id", event.ProviderEventID),
				zap.Error(findErr),
			)
		} else if stored != nil && stored.ProcessedAt == nil {
			s.log.Warn("duplicate delivery of an event not yet marked processed",
				zap.String("provider", event.Provider),
				zap.String("provider_event_id", event.ProviderEventID),
				zap.Time("received_at", stored.ReceivedAt),
			)
		}
		return paymentdomain.ErrEventAlreadyProcessed
	}

	if _, err := s.ledgerSvc.GetOrCreate(ctx, event.UserID, event.Email); err != nil {
		return err
	}
	if err := s.ledgerSvc.Credit(ctx, event.UserID, event.Credits); err != nil {
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, received.ID, now); err != nil {
		return err
	}

	s.log.Info("credits applied",
		zap.String("provider", event.Provider),
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("user_id", event.UserID),
		zap.Int64("credits", event.Credits),
	)

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentEvent(ctx, event.Provider, event.Type)
		s.obsMetrics.RecordLedgerCredit(ctx, event.Provider)
	}

	return nil
}

func validateEvent(event *paymentdomain.PaymentEvent) error {
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.ProviderEventID == "" {
		return paymentdomain.ErrInvalidEvent
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.Type != paymentdomain.EventTypeCheckoutCompleted {
		return paymentdomain.ErrInvalidEvent
	}
	event.UserID = strings.TrimSpace(event.UserID)
	if event.UserID == "" {
		return paymentdomain.ErrInvalidUser
	}
	if event.Credits <= 0 {
		return paymentdomain.ErrInvalidCredits
	}
	if event.OccurredAt.IsZero() {
		return paymentdomain.ErrInvalidEvent
	}
	return nil
}
