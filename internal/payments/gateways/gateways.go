package gateways

import (
	"context"
	"fmt"

	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

// Result is a gateway's answer about one payment attempt. Completed reports
// whether the provider settled the charge; anything else the reconciler
// treats as a declined payment.
type Result struct {
	Completed bool
	Reference string
}

// Verifier checks a payment proof against the issuing provider. The proof is
// whatever handle the provider's client flow produced: a Stripe checkout
// session id, a PayPal order id, a Paystack reference or a Flutterwave
// transaction id.
type Verifier interface {
	Verify(ctx context.Context, proof string) (*Result, error)
}

// Registry routes a payment method to its configured verifier. Methods whose
// credentials were never configured are simply absent.
type Registry struct {
	verifiers map[enums.PaymentMethod]Verifier
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[enums.PaymentMethod]Verifier)}
}

// Register binds a verifier to a payment method. Nil verifiers are ignored.
func (r *Registry) Register(method enums.PaymentMethod, verifier Verifier) {
	if verifier == nil {
		return
	}
	r.verifiers[method] = verifier
}

// For resolves the verifier for a payment method.
func (r *Registry) For(method enums.PaymentMethod) (Verifier, error) {
	verifier, ok := r.verifiers[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment method %q is not configured", method))
	}
	return verifier, nil
}
