package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/enums"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func testConverter(t *testing.T) *Converter {
	t.Helper()
	conv, err := NewConverter(config.RatesConfig{USDToNGN: "1600", USDToINR: "84"})
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return conv
}

func TestConverter_Convert(t *testing.T) {
	t.Parallel()
	conv := testConverter(t)

	got, err := conv.Convert(mustDecimal(t, "50.40"), enums.CurrencyNGN)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(mustDecimal(t, "80640")) {
		t.Fatalf("expected 80640 NGN, got %s", got)
	}

	got, err = conv.Convert(mustDecimal(t, "50.40"), enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(mustDecimal(t, "50.40")) {
		t.Fatalf("USD must convert at par, got %s", got)
	}

	if _, err := conv.Convert(decimal.NewFromInt(1), enums.Currency("EUR")); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}

func TestConverter_ToMinorUnits_Truncates(t *testing.T) {
	t.Parallel()
	conv := testConverter(t)

	kobo, err := conv.ToMinorUnits(mustDecimal(t, "50.40"), enums.CurrencyNGN)
	if err != nil {
		t.Fatalf("ToMinorUnits: %v", err)
	}
	if kobo != 8064000 {
		t.Fatalf("expected 8064000 kobo, got %d", kobo)
	}

	// 0.005 USD is half a cent; truncation discards it rather than rounding up.
	cents, err := conv.ToMinorUnits(mustDecimal(t, "0.005"), enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("ToMinorUnits: %v", err)
	}
	if cents != 0 {
		t.Fatalf("expected fractional cent to truncate to 0, got %d", cents)
	}
}

func TestConverter_Reload(t *testing.T) {
	t.Parallel()
	conv := testConverter(t)

	conv.Reload(map[enums.Currency]decimal.Decimal{
		enums.CurrencyNGN: mustDecimal(t, "1700"),
		enums.CurrencyUSD: mustDecimal(t, "2"), // must be ignored, USD stays pinned
	})

	got, err := conv.Convert(decimal.NewFromInt(1), enums.CurrencyNGN)
	if err != nil {
		t.Fatalf("Convert after reload: %v", err)
	}
	if !got.Equal(mustDecimal(t, "1700")) {
		t.Fatalf("expected reloaded rate 1700, got %s", got)
	}

	got, err = conv.Convert(decimal.NewFromInt(1), enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert after reload: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("USD rate must stay 1, got %s", got)
	}

	// INR was absent from the snapshot and is no longer supported.
	if _, err := conv.Convert(decimal.NewFromInt(1), enums.CurrencyINR); err == nil {
		t.Fatal("expected INR to be dropped after reload without it")
	}
}

func TestFetchRates(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rates": map[string]string{"NGN": "1650", "INR": "85.5", "XYZ": "2", "USD": "bad"},
		})
	}))
	defer srv.Close()

	rates, err := FetchRates(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("FetchRates: %v", err)
	}
	if !rates[enums.CurrencyNGN].Equal(mustDecimal(t, "1650")) {
		t.Fatalf("unexpected NGN rate %s", rates[enums.CurrencyNGN])
	}
	if !rates[enums.CurrencyINR].Equal(mustDecimal(t, "85.5")) {
		t.Fatalf("unexpected INR rate %s", rates[enums.CurrencyINR])
	}
	if _, ok := rates[enums.Currency("XYZ")]; ok {
		t.Fatal("unknown currencies must be skipped")
	}
}

func TestTaxTable_RateFor(t *testing.T) {
	t.Parallel()
	table := NewTaxTable(map[string]decimal.Decimal{
		"United States": mustDecimal(t, "5"),
		"nigeria":       mustDecimal(t, "7.5"),
	})

	if got := table.RateFor("united states"); !got.Equal(mustDecimal(t, "5")) {
		t.Fatalf("lookup must be case-insensitive, got %s", got)
	}
	if got := table.RateFor("  Nigeria "); !got.Equal(mustDecimal(t, "7.5")) {
		t.Fatalf("lookup must trim whitespace, got %s", got)
	}
	if got := table.RateFor("France"); !got.IsZero() {
		t.Fatalf("unknown country must be zero-rated, got %s", got)
	}
}

func TestTaxTable_TaxOn(t *testing.T) {
	t.Parallel()
	table := NewTaxTable(map[string]decimal.Decimal{"united states": mustDecimal(t, "5")})

	// Two units at 20.00: tax applies to the 40.00 subtotal.
	got := table.TaxOn(mustDecimal(t, "40.00"), "United States")
	if !got.Equal(mustDecimal(t, "2.00")) {
		t.Fatalf("expected 2.00 tax, got %s", got)
	}
	if got := table.TaxOn(mustDecimal(t, "40.00"), "France"); !got.IsZero() {
		t.Fatalf("expected zero tax, got %s", got)
	}
}

func TestServiceFee(t *testing.T) {
	t.Parallel()
	fee, err := NewServiceFee(config.CheckoutConfig{ServiceFeePercent: "5"})
	if err != nil {
		t.Fatalf("NewServiceFee: %v", err)
	}

	// Fee is charged on the pre-fee total: 40.00 + 6.00 shipping + 2.00 tax.
	got := fee.FeeOn(mustDecimal(t, "48.00"))
	if !got.Equal(mustDecimal(t, "2.40")) {
		t.Fatalf("expected 2.40 fee, got %s", got)
	}

	if _, err := NewServiceFee(config.CheckoutConfig{ServiceFeePercent: "101"}); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if _, err := NewServiceFee(config.CheckoutConfig{ServiceFeePercent: "abc"}); err == nil {
		t.Fatal("expected parse error")
	}
}
