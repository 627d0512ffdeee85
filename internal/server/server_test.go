package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/reelgate/internal/auth/domain"
	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	videogendomain "github.com/smallbiznis/reelgate/internal/videogen/domain"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	identity authdomain.Identity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*authdomain.Identity, error) {
	_ = ctx
	if token == "" {
		return nil, authdomain.ErrMissingToken
	}
	if f.err != nil {
		return nil, f.err
	}
	return &f.identity, nil
}

type fakeVideogenService struct {
	result *videogendomain.Result
	err    error
	calls  int
	last   videogendomain.Request
}

func (f *fakeVideogenService) Generate(ctx context.Context, req videogendomain.Request) (*videogendomain.Result, error) {
	f.calls++
	f.last = req
	_ = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLedgerService struct {
	account ledgerdomain.CreditAccount
}

func (f *fakeLedgerService) GetOrCreate(ctx context.Context, userID, email string) (*ledgerdomain.CreditAccount, error) {
	_ = ctx
	account := f.account
	account.UserID = userID
	account.Email = email
	return &account, nil
}

func (f *fakeLedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	_ = ctx
	_ = userID
	return f.account.Balance, nil
}

func (f *fakeLedgerService) TryDebit(ctx context.Context, userID string, amount int64) (bool, error) {
	_ = ctx
	_ = userID
	_ = amount
	return true, nil
}

func (f *fakeLedgerService) Credit(ctx context.Context, userID string, amount int64) error {
	_ = ctx
	_ = userID
	_ = amount
	return nil
}

type fakePaymentService struct {
	ingestErr error
	ingested  int
	session   *paymentdomain.CheckoutSession
	credits   int64
}

func (f *fakePaymentService) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	f.ingested++
	_ = ctx
	_ = provider
	_ = payload
	_ = headers
	return f.ingestErr
}

func (f *fakePaymentService) CreateCheckoutSession(ctx context.Context, provider string, userID, email string, credits int64) (*paymentdomain.CheckoutSession, error) {
	_ = ctx
	_ = provider
	_ = userID
	_ = email
	f.credits = credits
	return f.session, nil
}

func newTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv.engine = router
	srv.RegisterAPIRoutes()
	return router
}

func newTestServer() (*Server, *fakeVideogenService, *fakePaymentService) {
	videogenSvc := &fakeVideogenService{
		result: &videogendomain.Result{
			ArtifactURL:      "https://cdn.example.com/out.mp4",
			Seed:             42,
			RemainingBalance: 4,
		},
	}
	paymentSvc := &fakePaymentService{
		session: &paymentdomain.CheckoutSession{
			ID:  "cs_test_123",
			URL: "https://checkout.stripe.com/c/pay/cs_test_123",
		},
	}
	srv := &Server{
		log:         zap.NewNop(),
		verifier:    &fakeVerifier{identity: authdomain.Identity{Subject: "user-1", Email: "user@example.com"}},
		ledgerSvc:   &fakeLedgerService{account: ledgerdomain.CreditAccount{Balance: 4}},
		videogenSvc: videogenSvc,
		paymentSvc:  paymentSvc,
	}
	return srv, videogenSvc, paymentSvc
}

func doJSON(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestGenerateReturnsArtifact(t *testing.T) {
	srv, videogenSvc, _ := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/videos/generate", "tok", `{"prompt":"a fox in the snow","seed":42}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if videogenSvc.calls != 1 {
		t.Fatalf("expected one generate call, got %d", videogenSvc.calls)
	}
	if videogenSvc.last.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", videogenSvc.last.UserID)
	}
	if videogenSvc.last.Seed == nil || *videogenSvc.last.Seed != 42 {
		t.Fatalf("expected seed 42 forwarded, got %v", videogenSvc.last.Seed)
	}
	body := resp.Body.String()
	if !bytes.Contains([]byte(body), []byte(`"seed":42`)) {
		t.Fatalf("expected seed in response, got %s", body)
	}
	if !bytes.Contains([]byte(body), []byte(`"videoUrl":"https://cdn.example.com/out.mp4"`)) {
		t.Fatalf("expected video url in response, got %s", body)
	}
}

func TestGenerateWithoutTokenReturns401(t *testing.T) {
	srv, videogenSvc, _ := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/videos/generate", "", `{"prompt":"a fox"}`)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if videogenSvc.calls != 0 {
		t.Fatal("expected generate service not to be called")
	}
}

func TestGenerateInsufficientCreditReturns402(t *testing.T) {
	srv, videogenSvc, _ := newTestServer()
	videogenSvc.result = nil
	videogenSvc.err = videogendomain.ErrInsufficientCredit
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/videos/generate", "tok", `{"prompt":"a fox"}`)

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", resp.Code)
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	srv, videogenSvc, _ := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/videos/generate", "tok", `{"prompt":`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if videogenSvc.calls != 0 {
		t.Fatal("expected generate service not to be called")
	}
}

func TestGetAccountReturnsBalance(t *testing.T) {
	srv, _, _ := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/v1/account", "tok", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"credits":4`)) {
		t.Fatalf("expected credits in response, got %s", resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"userId":"user-1"`)) {
		t.Fatalf("expected user id in response, got %s", resp.Body.String())
	}
}

func TestWebhookAcknowledgesDelivery(t *testing.T) {
	srv, _, paymentSvc := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/payments/webhook", "", `{"id":"evt_1"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"received":true`)) {
		t.Fatalf("expected received acknowledgement, got %s", resp.Body.String())
	}
	if paymentSvc.ingested != 1 {
		t.Fatalf("expected one ingest call, got %d", paymentSvc.ingested)
	}
}

func TestWebhookAcknowledgesRedelivery(t *testing.T) {
	srv, _, paymentSvc := newTestServer()
	paymentSvc.ingestErr = paymentdomain.ErrEventAlreadyProcessed
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/payments/webhook", "", `{"id":"evt_1"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for redelivered event, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"received":true`)) {
		t.Fatalf("expected received acknowledgement, got %s", resp.Body.String())
	}
	if paymentSvc.ingested != 1 {
		t.Fatalf("expected one ingest call, got %d", paymentSvc.ingested)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv, _, paymentSvc := newTestServer()
	paymentSvc.ingestErr = paymentdomain.ErrInvalidSignature
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/payments/webhook", "", `{"id":"evt_1"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestCreateCheckoutSessionReturnsURL(t *testing.T) {
	srv, _, paymentSvc := newTestServer()
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/payments/checkout-session", "tok", `{"credits":10}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if paymentSvc.credits != 10 {
		t.Fatalf("expected 10 credits requested, got %d", paymentSvc.credits)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("checkout.stripe.com")) {
		t.Fatalf("expected checkout url in response, got %s", resp.Body.String())
	}
}
