package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vendora/storefront-backend/pkg/config"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: config.GatewayTimeout}
}

// fetchJSON executes the request produced by build and decodes a 2xx JSON
// body into out. Transport failures and 5xx answers are retried once with
// backoff; build is called per attempt because request bodies cannot be
// replayed. A provider that answers with 4xx rejected the proof, a provider
// we could not reach at all is reported as unreachable.
func fetchJSON(ctx context.Context, client *http.Client, build func(ctx context.Context) (*http.Request, error), out any) error {
	if client == nil {
		client = defaultHTTPClient()
	}

	backoff := retry.WithMaxRetries(1, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := build(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
		}

		res, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeGatewayUnreachable, err, "gateway request failed"))
		}
		defer func() { _ = res.Body.Close() }()

		if res.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeGatewayUnreachable, fmt.Sprintf("gateway returned %d", res.StatusCode)))
		}
		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			msg, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyReadLimit))
			return pkgerrors.New(pkgerrors.CodeGatewayRejected, fmt.Sprintf("gateway returned %d: %s", res.StatusCode, strings.TrimSpace(string(msg))))
		}

		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGatewayRejected, err, "decode gateway response")
		}
		return nil
	})
	return err
}
