package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// AdapterConfig carries provider credentials resolved from application
// configuration.
type AdapterConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	BaseURL       string
}

// PaymentAdapter hides one provider's webhook and checkout surface.
type PaymentAdapter interface {
	Provider() string

	// Verify authenticates the raw payload against provider headers
	// before anything is parsed.
	Verify(ctx context.Context, payload []byte, headers http.Header) error

	// Parse maps a verified payload to a canonical purchase event, or
	// ErrEventIgnored for types that carry no credits.
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)

	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error)
}

// AdapterFactory builds an adapter for one provider.
type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

// Repository persists event records. The insert is conditional on the
// (provider, provider_event_id) unique pair.
type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}

// Service ingests provider webhooks end to end and starts checkouts.
type Service interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
	CreateCheckoutSession(ctx context.Context, provider string, userID, email string, credits int64) (*CheckoutSession, error)
}
