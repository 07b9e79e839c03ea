package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxTable maps shipping countries to percentage tax rates. Lookups are
// case-insensitive and a country without an entry is taxed at zero.
type TaxTable struct {
	rates map[string]decimal.Decimal
}

// NewTaxTable builds a table from country name to percentage rate.
func NewTaxTable(rates map[string]decimal.Decimal) *TaxTable {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for country, rate := range rates {
		if rate.Sign() < 0 {
			continue
		}
		normalized[normalizeCountry(country)] = rate
	}
	return &TaxTable{rates: normalized}
}

// LoadTaxTable reads a JSON file of {"country": "percent"} entries. An empty
// path yields an empty table, which taxes everything at zero.
func LoadTaxTable(path string) (*TaxTable, error) {
	if path == "" {
		return NewTaxTable(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tax table %q: %w", path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing tax table %q: %w", path, err)
	}

	rates := make(map[string]decimal.Decimal, len(raw))
	for country, pct := range raw {
		rate, err := decimal.NewFromString(pct)
		if err != nil {
			return nil, fmt.Errorf("invalid tax rate %q for %q: %w", pct, country, err)
		}
		rates[country] = rate
	}
	return NewTaxTable(rates), nil
}

// RateFor returns the percentage rate for the given country.
func (t *TaxTable) RateFor(country string) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	return t.rates[normalizeCountry(country)]
}

// TaxOn computes the tax owed on an amount shipped to the given country,
// rounded to cents.
func (t *TaxTable) TaxOn(amount decimal.Decimal, country string) decimal.Decimal {
	return Percent(amount, t.RateFor(country))
}

func normalizeCountry(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}
