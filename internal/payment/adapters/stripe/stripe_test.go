package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildSignatureHeader(secret, payload, timestamp)
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", header)

	adapter := &Adapter{webhookSecret: secret}
	if err := adapter.Verify(context.Background(), payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", buildSignatureHeader("wrong", payload, timestamp))
	if err := adapter.Verify(context.Background(), payload, reqHeader); err == nil {
		t.Fatalf("expected invalid signature error")
	}

	reqHeader.Del("Stripe-Signature")
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for missing header, got %v", err)
	}
}

func TestParseCheckoutCompleted(t *testing.T) {
	created := time.Now().UTC().Unix()
	event := map[string]any{
		"id":      "evt_checkout",
		"type":    "checkout.session.completed",
		"created": created,
		"data": map[string]any{
			"object": map[string]any{
				"id":           "cs_1",
				"amount_total": 500,
				"currency":     "usd",
				"created":      created,
				"customer_details": map[string]any{
					"email": "buyer@example.com",
				},
				"metadata": map[string]any{
					"userId":       "user-1",
					"creditsToAdd": "5",
				},
			},
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	adapter := &Adapter{webhookSecret: "whsec_test"}
	parsed, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if parsed.Type != paymentdomain.EventTypeCheckoutCompleted {
		t.Fatalf("expected checkout event, got %s", parsed.Type)
	}
	if parsed.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", parsed.UserID)
	}
	if parsed.Credits != 5 {
		t.Fatalf("expected 5 credits, got %d", parsed.Credits)
	}
	if parsed.Email != "buyer@example.com" {
		t.Fatalf("expected email, got %q", parsed.Email)
	}
	if parsed.Currency != "USD" {
		t.Fatalf("expected currency USD, got %s", parsed.Currency)
	}
	if parsed.ProviderEventID != "evt_checkout" {
		t.Fatalf("expected provider event id, got %s", parsed.ProviderEventID)
	}
}

func TestParseIgnoresOtherEventTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_pi","type":"payment_intent.succeeded","data":{"object":{}}}`)

	adapter := &Adapter{webhookSecret: "whsec_test"}
	if _, err := adapter.Parse(context.Background(), payload); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("expected event ignored, got %v", err)
	}
}

func TestParseRejectsMissingCredits(t *testing.T) {
	payload := []byte(`{"id":"evt_cs","type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"userId":"user-1"}}}}`)

	adapter := &Adapter{webhookSecret: "whsec_test"}
	if _, err := adapter.Parse(context.Background(), payload); !errors.Is(err, paymentdomain.ErrInvalidCredits) {
		t.Fatalf("expected invalid credits, got %v", err)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("metadata[userId]") != "user-1" {
			t.Errorf("expected user metadata, got %q", r.PostForm.Get("metadata[userId]"))
		}
		if r.PostForm.Get("metadata[creditsToAdd]") != "10" {
			t.Errorf("expected credits metadata, got %q", r.PostForm.Get("metadata[creditsToAdd]"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test","url":"https://checkout.stripe.com/pay/cs_test"}`)
	}))
	defer srv.Close()

	factory := NewFactory()
	adapter, err := factory.NewAdapter(paymentdomain.AdapterConfig{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
		SuccessURL:    "https://example.com/ok",
		CancelURL:     "https://example.com/cancel",
		BaseURL:       srv.URL,
	})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	session, err := adapter.CreateCheckoutSession(context.Background(), paymentdomain.CheckoutInput{
		UserID:          "user-1",
		Email:           "buyer@example.com",
		Credits:         10,
		UnitAmountCents: 100,
		Currency:        "usd",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "cs_test" || session.URL == "" {
		t.Fatalf("unexpected session %+v", session)
	}
}
