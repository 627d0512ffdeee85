package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is the durable trace of a provider event. The unique
// (provider, provider_event_id) pair is what makes crediting
// exactly-once across webhook re-deliveries.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event_id,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event_id,priority:2"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	UserID          string         `json:"user_id" gorm:"type:text;not null;index"`
	Credits         int64          `json:"credits" gorm:"not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

const (
	EventTypeCheckoutCompleted = "checkout_completed"
)

// PaymentEvent is the canonical purchase event parsed by adapters.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	UserID          string
	Email           string
	Credits         int64
	AmountCents     int64
	Currency        string
	OccurredAt      time.Time
	RawPayload      []byte
}

// CheckoutInput describes a credit purchase to start at the provider.
type CheckoutInput struct {
	UserID          string
	Email           string
	Credits         int64
	UnitAmountCents int64
	Currency        string
}

// CheckoutSession points the buyer at the provider-hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}
