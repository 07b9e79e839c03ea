package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/api/middleware"
	cartsvc "github.com/vendora/storefront-backend/internal/cart"
	couponsvc "github.com/vendora/storefront-backend/internal/coupons"
	notifsvc "github.com/vendora/storefront-backend/internal/notifications"
	ordersvc "github.com/vendora/storefront-backend/internal/orders"
	paymentsvc "github.com/vendora/storefront-backend/internal/payments"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/internal/session"
	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func (m *memorySessionStore) StoreCartSession(_ context.Context, token, cartID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[string]string{}
	}
	m.sessions[token] = cartID
	return nil
}

func (m *memorySessionStore) GetCartSession(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cartID, ok := m.sessions[token]
	if !ok {
		return "", goredis.Nil
	}
	return cartID, nil
}

func (m *memorySessionStore) RevokeCartSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

type stubCartService struct {
	snapshot func(ctx context.Context, cartID string) (*cartsvc.CartSnapshot, error)
}

func (s stubCartService) AddOrUpdate(ctx context.Context, cartID string, input cartsvc.AddItemInput) (*cartsvc.Summary, error) {
	return &cartsvc.Summary{Count: 1}, nil
}

func (s stubCartService) Remove(ctx context.Context, cartID string, productID uuid.UUID) (*cartsvc.Summary, error) {
	return &cartsvc.Summary{}, nil
}

func (s stubCartService) Snapshot(ctx context.Context, cartID string) (*cartsvc.CartSnapshot, error) {
	if s.snapshot != nil {
		return s.snapshot(ctx, cartID)
	}
	return &cartsvc.CartSnapshot{CartID: cartID}, nil
}

func (s stubCartService) Clear(ctx context.Context, cartID string) error {
	return nil
}

type stubOrdersService struct {
	materialize func(ctx context.Context, input ordersvc.MaterializeInput) (*models.Order, error)
}

func (s stubOrdersService) Materialize(ctx context.Context, input ordersvc.MaterializeInput) (*models.Order, error) {
	if s.materialize != nil {
		return s.materialize(ctx, input)
	}
	return &models.Order{PublicID: "ord123", Total: decimal.NewFromInt(10)}, nil
}

func (s stubOrdersService) Get(ctx context.Context, publicID string) (*models.Order, error) {
	return &models.Order{PublicID: publicID, Total: decimal.NewFromInt(10)}, nil
}

func (s stubOrdersService) TrackItem(ctx context.Context, key string) (*models.OrderItem, error) {
	return &models.OrderItem{PublicID: key}, nil
}

type stubCouponsService struct{}

func (stubCouponsService) Apply(ctx context.Context, orderPublicID, code string) (*couponsvc.ApplyResult, error) {
	return &couponsvc.ApplyResult{Matched: true}, nil
}

type stubPaymentsService struct {
	confirm func(ctx context.Context, input paymentsvc.ConfirmInput) (*paymentsvc.ConfirmResult, error)
}

func (s stubPaymentsService) Confirm(ctx context.Context, input paymentsvc.ConfirmInput) (*paymentsvc.ConfirmResult, error) {
	if s.confirm != nil {
		return s.confirm(ctx, input)
	}
	return &paymentsvc.ConfirmResult{Status: enums.PaymentStatusPaid, Settled: true}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) RecordOrderPaid(ctx context.Context, order *models.Order) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifsvc.ListParams) (*notifsvc.ListResult, error) {
	if (params.Recipient.CustomerID == nil) == (params.Recipient.VendorID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one recipient scope required")
	}
	return &notifsvc.ListResult{}, nil
}

func (stubNotificationsService) MarkSeen(ctx context.Context, recipient notifsvc.Recipient, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllSeen(ctx context.Context, recipient notifsvc.Recipient) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Port: "0"},
		Session: config.SessionConfig{CartTTL: time.Hour},
		RateLimit: config.RateLimitConfig{
			CheckoutWindow:  time.Minute,
			CheckoutIPLimit: 10,
			VerifyWindow:    time.Minute,
			VerifyIPLimit:   30,
		},
	}
}

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})

	sessions, err := session.NewManager(&memorySessionStore{}, config.SessionConfig{CartTTL: time.Hour})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	converter, err := pricing.NewConverter(config.RatesConfig{USDToNGN: "1600", USDToINR: "84"})
	if err != nil {
		t.Fatalf("converter: %v", err)
	}

	deps := Deps{
		Config:        testConfig(),
		Logger:        logg,
		DB:            stubPinger{},
		Sessions:      sessions,
		Converter:     converter,
		Cart:          stubCartService{},
		Orders:        stubOrdersService{},
		Coupons:       stubCouponsService{},
		Payments:      stubPaymentsService{},
		Notifications: stubNotificationsService{},
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartRoutesMintSessionToken(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	token := resp.Header().Get(middleware.SessionTokenHeader)
	if token == "" {
		t.Fatal("expected a session token on the response")
	}

	var first struct {
		Data cartsvc.CartSnapshot `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// A second request with the token keeps the same cart.
	again := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	again.Header.Set(middleware.SessionTokenHeader, token)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, again)

	if got := resp2.Header().Get(middleware.SessionTokenHeader); got != token {
		t.Fatalf("expected token %q echoed, got %q", token, got)
	}
	var second struct {
		Data cartsvc.CartSnapshot `json:"data"`
	}
	if err := json.Unmarshal(resp2.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Data.CartID != second.Data.CartID {
		t.Fatalf("cart id changed across requests: %q vs %q", first.Data.CartID, second.Data.CartID)
	}
}

func TestCheckoutRouteMaterializesSessionCart(t *testing.T) {
	var gotCartID string
	router := newTestRouter(t, func(deps *Deps) {
		deps.Orders = stubOrdersService{
			materialize: func(_ context.Context, input ordersvc.MaterializeInput) (*models.Order, error) {
				gotCartID = input.CartID
				return &models.Order{PublicID: "ord123", Total: decimal.NewFromInt(10)}, nil
			},
		}
	})

	body := strings.NewReader(`{"customer_id":"` + uuid.NewString() + `","address_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotCartID == "" {
		t.Fatal("expected the minted session cart id to reach the service")
	}
}

func TestPaymentVerifyRejectsUnknownGateway(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord123/payments/venmo/verify?reference=ref", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentVerifyRoutesToService(t *testing.T) {
	var got paymentsvc.ConfirmInput
	router := newTestRouter(t, func(deps *Deps) {
		deps.Payments = stubPaymentsService{
			confirm: func(_ context.Context, input paymentsvc.ConfirmInput) (*paymentsvc.ConfirmResult, error) {
				got = input
				return &paymentsvc.ConfirmResult{Status: enums.PaymentStatusPaid, Settled: true}, nil
			},
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord123/payments/paystack/verify?reference=ref42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.OrderPublicID != "ord123" || got.Method != enums.PaymentMethodPaystack || got.Proof != "ref42" {
		t.Fatalf("unexpected confirm input: %+v", got)
	}
}

func TestStripeSessionUnavailableWithoutGateway(t *testing.T) {
	router := newTestRouter(t, nil)

	body := strings.NewReader(`{"success_url":"https://shop.test/ok","cancel_url":"https://shop.test/no"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord123/payments/stripe/session", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 with no stripe gateway, got %d", resp.Code)
	}
}

func TestNotificationsListRequiresRecipient(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
