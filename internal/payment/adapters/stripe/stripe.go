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
	"net/url"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
)

const defaultBaseURL = "https://api.stripe.com"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "stripe"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		secretKey:     strings.TrimSpace(cfg.SecretKey),
		webhookSecret: secret,
		successURL:    strings.TrimSpace(cfg.SuccessURL),
		cancelURL:     strings.TrimSpace(cfg.CancelURL),
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type Adapter struct {
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	baseURL       string
	httpClient    *http.Client
}

func (a *Adapter) Provider() string {
	return "stripe"
}

// Verify checks the Stripe-Signature header against an HMAC-SHA256 of
// "<timestamp>.<raw payload>" with the endpoint secret.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type checkoutSession struct {
	ID                string            `json:"id"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Created           int64             `json:"created"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerDetails   *customerDetails  `json:"customer_details"`
	Metadata          map[string]string `json:"metadata"`
	URL               string            `json:"url"`
}

type customerDetails struct {
	Email string `json:"email"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	if strings.TrimSpace(event.Type) != "checkout.session.completed" {
		return nil, paymentdomain.ErrEventIgnored
	}

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	userID := strings.TrimSpace(session.Metadata["userId"])
	if userID == "" {
		userID = strings.TrimSpace(session.ClientReferenceID)
	}
	if userID == "" {
		return nil, paymentdomain.ErrInvalidUser
	}

	credits, err := strconv.ParseInt(strings.TrimSpace(session.Metadata["creditsToAdd"]), 10, 64)
	if err != nil || credits <= 0 {
		return nil, paymentdomain.ErrInvalidCredits
	}

	email := ""
	if session.CustomerDetails != nil {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}

	return &paymentdomain.PaymentEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		Type:            paymentdomain.EventTypeCheckoutCompleted,
		UserID:          userID,
		Email:           email,
		Credits:         credits,
		AmountCents:     session.AmountTotal,
		Currency:        strings.ToUpper(strings.TrimSpace(session.Currency)),
		OccurredAt:      timestamp(session.Created, event.Created),
		RawPayload:      payload,
	}, nil
}

// CreateCheckoutSession starts a hosted checkout for a credit bundle.
// The user id and credit amount ride in session metadata and come back
// on the completion webhook.
func (a *Adapter) CreateCheckoutSession(ctx context.Context, input paymentdomain.CheckoutInput) (*paymentdomain.CheckoutSession, error) {
	if a.secretKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, paymentdomain.ErrInvalidUser
	}
	if input.Credits <= 0 {
		return nil, paymentdomain.ErrInvalidCredits
	}

	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", a.successURL)
	form.Set("cancel_url", a.cancelURL)
	form.Set("client_reference_id", input.UserID)
	if input.Email != "" {
		form.Set("customer_email", input.Email)
	}
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][product_data][name]", "Video generation credits")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.UnitAmountCents, 10))
	form.Set("line_items[0][quantity]", strconv.FormatInt(input.Credits, 10))
	form.Set("metadata[userId]", input.UserID)
	form.Set("metadata[creditsToAdd]", strconv.FormatInt(input.Credits, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrCheckoutFailed, err)
	}
	if resp.StatusCode != http.StatusOK || session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: unexpected status %d", paymentdomain.ErrCheckoutFailed, resp.StatusCode)
	}

	return &paymentdomain.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
