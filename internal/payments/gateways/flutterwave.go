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

var errFlutterwaveKeyRequired = errors.New("flutterwave private key is required")

// Flutterwave verifies charges by transaction id against the Flutterwave v3 API.
type Flutterwave struct {
	privateKey string
	baseURL    string
	httpClient *http.Client
}

// NewFlutterwave builds the Flutterwave verifier.
func NewFlutterwave(cfg config.FlutterwaveConfig) (*Flutterwave, error) {
	key := strings.TrimSpace(cfg.PrivateKey)
	if key == "" {
		return nil, errFlutterwaveKeyRequired
	}
	return &Flutterwave{
		privateKey: key,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: defaultHTTPClient(),
	}, nil
}

// WithHTTPClient overrides the transport, used by tests.
func (f *Flutterwave) WithHTTPClient(client *http.Client) *Flutterwave {
	if client != nil {
		f.httpClient = client
	}
	return f
}

// Verify checks the transaction named by proof. The envelope status only
// says the lookup succeeded; the charge itself is settled when
// data.status is "successful", so that field alone decides the outcome.
func (f *Flutterwave) Verify(ctx context.Context, proof string) (*Result, error) {
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
			TxRef  string `json:"tx_ref"`
		} `json:"data"`
	}
	err := fetchJSON(ctx, f.httpClient, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v3/transactions/%s/verify", f.baseURL, url.PathEscape(proof)), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+f.privateKey)
		return req, nil
	}, &payload)
	if err != nil {
		return nil, err
	}

	return &Result{
		Completed: payload.Data.Status == "successful",
		Reference: payload.Data.TxRef,
	}, nil
}
