package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vendora/storefront-backend/pkg/config"
)

var errPaystackKeyRequired = errors.New("paystack private key is required")

// Paystack verifies transactions by reference against the Paystack API.
type Paystack struct {
	privateKey string
	baseURL    string
	httpClient *http.Client
}

// NewPaystack builds the Paystack verifier.
func NewPaystack(cfg config.PaystackConfig) (*Paystack, error) {
	key := strings.TrimSpace(cfg.PrivateKey)
	if key == "" {
		return nil, errPaystackKeyRequired
	}
	return &Paystack{
		privateKey: key,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: defaultHTTPClient(),
	}, nil
}

// WithHTTPClient overrides the transport, used by tests.
func (p *Paystack) WithHTTPClient(client *http.Client) *Paystack {
	if client != nil {
		p.httpClient = client
	}
	return p
}

// Verify checks the transaction named by the reference in proof. Paystack
// reports the request outcome in the envelope's status flag and the charge
// outcome in data.status; both must agree before the payment counts.
func (p *Paystack) Verify(ctx context.Context, proof string) (*Result, error) {
	var payload struct {
		Status bool `json:"status"`
		Data   struct {
			Status    string `json:"status"`
			Reference string `json:"reference"`
		} `json:"data"`
	}
	err := fetchJSON(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(proof)), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.privateKey)
		return req, nil
	}, &payload)
	if err != nil {
		return nil, err
	}

	return &Result{
		Completed: payload.Status && payload.Data.Status == "success",
		Reference: payload.Data.Reference,
	}, nil
}
