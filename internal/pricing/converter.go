package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

// Converter translates USD amounts into gateway settlement currencies.
// Rates are injected at construction and may be swapped at runtime via
// Reload, so a refresh never blocks in-flight conversions for long.
type Converter struct {
	mu    sync.RWMutex
	rates map[enums.Currency]decimal.Decimal
}

// NewConverter seeds the rate table from configuration. USD is the base
// currency and always converts at 1.
func NewConverter(cfg config.RatesConfig) (*Converter, error) {
	ngn, err := decimal.NewFromString(cfg.USDToNGN)
	if err != nil {
		return nil, fmt.Errorf("parsing USD to NGN rate %q: %w", cfg.USDToNGN, err)
	}
	inr, err := decimal.NewFromString(cfg.USDToINR)
	if err != nil {
		return nil, fmt.Errorf("parsing USD to INR rate %q: %w", cfg.USDToINR, err)
	}
	if ngn.Sign() <= 0 || inr.Sign() <= 0 {
		return nil, fmt.Errorf("exchange rates must be positive")
	}

	return &Converter{
		rates: map[enums.Currency]decimal.Decimal{
			enums.CurrencyUSD: decimal.NewFromInt(1),
			enums.CurrencyNGN: ngn,
			enums.CurrencyINR: inr,
		},
	}, nil
}

// Convert returns the amount expressed in the target currency.
func (c *Converter) Convert(amount decimal.Decimal, to enums.Currency) (decimal.Decimal, error) {
	c.mu.RLock()
	rate, ok := c.rates[to]
	c.mu.RUnlock()
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", to))
	}
	return amount.Mul(rate), nil
}

// ToMinorUnits converts a USD amount into the smallest unit of the target
// currency (cents, kobo). The fractional remainder below one minor unit is
// truncated, never rounded up, so a customer is not overcharged.
func (c *Converter) ToMinorUnits(amount decimal.Decimal, to enums.Currency) (int64, error) {
	converted, err := c.Convert(amount, to)
	if err != nil {
		return 0, err
	}
	return converted.Shift(2).Truncate(0).IntPart(), nil
}

// Reload atomically replaces the rate table. Unknown currencies in the
// snapshot are ignored; USD stays pinned at 1.
func (c *Converter) Reload(rates map[enums.Currency]decimal.Decimal) {
	next := map[enums.Currency]decimal.Decimal{
		enums.CurrencyUSD: decimal.NewFromInt(1),
	}
	for cur, rate := range rates {
		if !cur.IsValid() || cur == enums.CurrencyUSD || rate.Sign() <= 0 {
			continue
		}
		next[cur] = rate
	}

	c.mu.Lock()
	c.rates = next
	c.mu.Unlock()
}

type ratesResponse struct {
	Rates map[string]string `json:"rates"`
}

// FetchRates pulls a fresh USD rate snapshot from the configured provider.
// Transient failures are retried with exponential backoff.
func FetchRates(ctx context.Context, client *http.Client, url string) (map[enums.Currency]decimal.Decimal, error) {
	if client == nil {
		client = &http.Client{Timeout: config.GatewayTimeout}
	}

	var payload ratesResponse
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		res, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer res.Body.Close()
		if res.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("rates provider returned %d", res.StatusCode))
		}
		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("rates provider returned %d", res.StatusCode)
		}
		return json.NewDecoder(res.Body).Decode(&payload)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching exchange rates")
	}

	out := make(map[enums.Currency]decimal.Decimal, len(payload.Rates))
	for code, raw := range payload.Rates {
		cur, err := enums.ParseCurrency(code)
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.Sign() <= 0 {
			continue
		}
		out[cur] = rate
	}
	return out, nil
}
