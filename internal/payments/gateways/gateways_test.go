package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, err := registry.For(enums.PaymentMethodPayPal)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unregistered method, got %v", err)
	}

	paystack, err := NewPaystack(config.PaystackConfig{PrivateKey: "sk_test", BaseURL: "https://api.paystack.co"})
	if err != nil {
		t.Fatalf("NewPaystack: %v", err)
	}
	registry.Register(enums.PaymentMethodPaystack, paystack)
	if _, err := registry.For(enums.PaymentMethodPaystack); err != nil {
		t.Fatalf("expected registered verifier, got %v", err)
	}
}

func TestPayPalVerify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			if !ok || user != "client" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok-1"}`))
		case "/v2/checkout/orders/5O190127TN364715T":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"5O190127TN364715T","status":"COMPLETED"}`))
		case "/v2/checkout/orders/pending-order":
			_, _ = w.Write([]byte(`{"id":"pending-order","status":"APPROVED"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	paypal, err := NewPayPal(config.PayPalConfig{ClientID: "client", SecretID: "secret", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewPayPal: %v", err)
	}
	paypal.WithHTTPClient(server.Client())

	result, err := paypal.Verify(context.Background(), "5O190127TN364715T")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Completed {
		t.Fatal("expected completed order")
	}
	if result.Reference != "5O190127TN364715T" {
		t.Fatalf("reference = %q", result.Reference)
	}

	// An approved-but-never-captured order is not a settled payment.
	result, err = paypal.Verify(context.Background(), "pending-order")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Completed {
		t.Fatal("APPROVED must not count as completed")
	}

	_, err = paypal.Verify(context.Background(), "missing-order")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayRejected {
		t.Fatalf("expected GATEWAY_REJECTED for 404, got %v", err)
	}
}

func TestPaystackVerify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/transaction/verify/ref-ok":
			_, _ = w.Write([]byte(`{"status":true,"data":{"status":"success","reference":"ref-ok"}}`))
		case "/transaction/verify/ref-declined":
			_, _ = w.Write([]byte(`{"status":true,"data":{"status":"failed","reference":"ref-declined"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	paystack, err := NewPaystack(config.PaystackConfig{PrivateKey: "sk_test_key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewPaystack: %v", err)
	}
	paystack.WithHTTPClient(server.Client())

	result, err := paystack.Verify(context.Background(), "ref-ok")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Completed {
		t.Fatal("expected settled charge")
	}

	result, err = paystack.Verify(context.Background(), "ref-declined")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Completed {
		t.Fatal("declined charge must not count as completed")
	}
}

func TestFlutterwaveVerify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/transactions/12345/verify":
			_, _ = w.Write([]byte(`{"status":"success","data":{"status":"successful","tx_ref":"tx-1"}}`))
		case "/v3/transactions/67890/verify":
			// Lookup succeeded but the charge itself failed.
			_, _ = w.Write([]byte(`{"status":"success","data":{"status":"failed","tx_ref":"tx-2"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	flutterwave, err := NewFlutterwave(config.FlutterwaveConfig{PrivateKey: "flw_key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewFlutterwave: %v", err)
	}
	flutterwave.WithHTTPClient(server.Client())

	result, err := flutterwave.Verify(context.Background(), "12345")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Completed || result.Reference != "tx-1" {
		t.Fatalf("unexpected result %+v", result)
	}

	result, err = flutterwave.Verify(context.Background(), "67890")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Completed {
		t.Fatal("a successful lookup of a failed charge must not count as completed")
	}
}

func TestVerifyUnreachableGateway(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	paystack, err := NewPaystack(config.PaystackConfig{PrivateKey: "sk_test_key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewPaystack: %v", err)
	}

	_, err = paystack.Verify(context.Background(), "ref-ok")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnreachable {
		t.Fatalf("expected GATEWAY_UNREACHABLE, got %v", err)
	}
}

func TestUSDCentsTruncates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount string
		want   int64
	}{
		{"50.40", 5040},
		{"0.00", 0},
		{"19.999", 1999},
		{"0.009", 0},
	}
	for _, tc := range cases {
		got := usdCents(decimal.RequireFromString(tc.amount))
		if got != tc.want {
			t.Fatalf("usdCents(%s) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestMissingCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewPayPal(config.PayPalConfig{}); err == nil {
		t.Fatal("expected error for missing paypal credentials")
	}
	if _, err := NewPaystack(config.PaystackConfig{}); err == nil {
		t.Fatal("expected error for missing paystack key")
	}
	if _, err := NewFlutterwave(config.FlutterwaveConfig{}); err == nil {
		t.Fatal("expected error for missing flutterwave key")
	}
	if _, err := NewStripe(config.StripeConfig{}); err == nil {
		t.Fatal("expected error for missing stripe key")
	}
}
