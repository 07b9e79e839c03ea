package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/config"
)

var oneHundred = decimal.NewFromInt(100)

// Percent returns pct% of amount, rounded to cents.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(oneHundred).Round(2)
}

// ServiceFee computes the platform fee charged on an order total.
// The fee applies to the pre-fee total, after shipping and tax.
type ServiceFee struct {
	pct decimal.Decimal
}

// NewServiceFee parses the configured percentage.
func NewServiceFee(cfg config.CheckoutConfig) (*ServiceFee, error) {
	pct, err := decimal.NewFromString(cfg.ServiceFeePercent)
	if err != nil {
		return nil, fmt.Errorf("parsing service fee percent %q: %w", cfg.ServiceFeePercent, err)
	}
	if pct.Sign() < 0 || pct.GreaterThan(oneHundred) {
		return nil, fmt.Errorf("service fee percent %s out of range", pct)
	}
	return &ServiceFee{pct: pct}, nil
}

// FeeOn returns the fee owed on the given pre-fee amount.
func (f *ServiceFee) FeeOn(amount decimal.Decimal) decimal.Decimal {
	return Percent(amount, f.pct)
}

// Pct exposes the configured percentage.
func (f *ServiceFee) Pct() decimal.Decimal {
	return f.pct
}
