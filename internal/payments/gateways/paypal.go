package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vendora/storefront-backend/pkg/config"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

var errPayPalCredentialsRequired = errors.New("paypal client id and secret are required")

// PayPal verifies orders created through the PayPal Checkout flow. Every
// verification fetches a fresh OAuth token; token caching is not worth the
// staleness handling at checkout volumes.
type PayPal struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
}

// NewPayPal builds the PayPal verifier from configured REST credentials.
func NewPayPal(cfg config.PayPalConfig) (*PayPal, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.SecretID)
	if clientID == "" || secret == "" {
		return nil, errPayPalCredentialsRequired
	}
	return &PayPal{
		clientID:   clientID,
		secret:     secret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: defaultHTTPClient(),
	}, nil
}

// WithHTTPClient overrides the transport, used by tests.
func (p *PayPal) WithHTTPClient(client *http.Client) *PayPal {
	if client != nil {
		p.httpClient = client
	}
	return p
}

// Verify checks the PayPal order named by proof. Only a COMPLETED order
// counts as settled; CREATED and APPROVED orders were never captured.
func (p *PayPal) Verify(ctx context.Context, proof string) (*Result, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err = fetchJSON(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v2/checkout/orders/%s", p.baseURL, url.PathEscape(proof)), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, &payload)
	if err != nil {
		return nil, err
	}

	return &Result{
		Completed: payload.Status == "COMPLETED",
		Reference: payload.ID,
	}, nil
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	err := fetchJSON(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		body := strings.NewReader("grant_type=client_credentials")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/oauth2/token", body)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(p.clientID, p.secret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &payload)
	if err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeGatewayRejected, "paypal token response missing access_token")
	}
	return payload.AccessToken, nil
}
