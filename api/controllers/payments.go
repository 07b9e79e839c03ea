package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/api/validators"
	ordersvc "github.com/vendora/storefront-backend/internal/orders"
	paymentsvc "github.com/vendora/storefront-backend/internal/payments"
	"github.com/vendora/storefront-backend/internal/payments/gateways"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// StripeSession opens a hosted Stripe Checkout session for an order. The
// storefront supplies its own return URLs so the redirect lands back on the
// page the buyer started from.
func StripeSession(orders ordersvc.Service, stripe *gateways.Stripe, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil || stripe == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe checkout unavailable"))
			return
		}

		var payload stripeSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orders.Get(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.PaymentStatus.IsTerminal() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "order already settled"))
			return
		}

		session, err := stripe.CreateCheckoutSession(r.Context(), order, payload.SuccessURL, payload.CancelURL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// PaymentVerify reconciles a provider-issued payment proof against the
// gateway named in the path and settles the order accordingly.
func PaymentVerify(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		method, err := enums.ParsePaymentMethod(chi.URLParam(r, "gateway"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown gateway"))
			return
		}

		result, err := svc.Confirm(r.Context(), paymentsvc.ConfirmInput{
			OrderPublicID: chi.URLParam(r, "orderID"),
			Method:        method,
			Proof:         r.URL.Query().Get("reference"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type stripeSessionRequest struct {
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}
