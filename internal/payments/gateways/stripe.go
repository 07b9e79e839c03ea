package gateways

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/vendora/storefront-backend/pkg/config"
	"github.com/vendora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

var errStripeKeyRequired = errors.New("stripe secret key is required")

// Stripe verifies payments made through Stripe Checkout and creates the
// sessions the storefront redirects customers to.
type Stripe struct {
	publicKey string
}

// NewStripe configures the global Stripe client with the secret key.
func NewStripe(cfg config.StripeConfig) (*Stripe, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errStripeKeyRequired
	}
	stripe.Key = secret
	return &Stripe{publicKey: strings.TrimSpace(cfg.PublicKey)}, nil
}

// PublicKey returns the publishable key handed to the storefront client.
func (s *Stripe) PublicKey() string {
	return s.publicKey
}

// CheckoutSession is the subset of a created Stripe session the storefront
// needs to redirect the customer.
type CheckoutSession struct {
	ID  string
	URL string
}

// CreateCheckoutSession opens a Stripe Checkout session for the order's
// grand total. The session id doubles as the payment proof the customer's
// browser sends back for verification.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(order.PublicID),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(usdCents(order.Total)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order %s", order.PublicID)),
					},
				},
			},
		},
	}

	created, err := session.New(params)
	if err != nil {
		return nil, mapStripeError(err, "create checkout session")
	}
	return &CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

// Verify retrieves the checkout session and reports whether Stripe settled it.
func (s *Stripe) Verify(ctx context.Context, proof string) (*Result, error) {
	sess, err := session.Get(proof, &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, mapStripeError(err, "retrieve checkout session")
	}
	return &Result{
		Completed: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Reference: sess.ID,
	}, nil
}

// usdCents truncates a USD amount to whole cents. Truncation keeps the
// charged amount from ever exceeding the order total.
func usdCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Truncate(0).IntPart()
}

func mapStripeError(err error, action string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayRejected, err, action)
	}
	return pkgerrors.Wrap(pkgerrors.CodeGatewayUnreachable, err, action)
}
