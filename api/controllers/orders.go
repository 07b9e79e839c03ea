package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/api/responses"
	ordersvc "github.com/vendora/storefront-backend/internal/orders"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// PublishableKeys carries the client-side keys the storefront needs to open
// each gateway's payment widget. Empty entries mean the gateway is not
// configured and the client should hide it.
type PublishableKeys struct {
	Stripe      string `json:"stripe,omitempty"`
	Paystack    string `json:"paystack,omitempty"`
	Flutterwave string `json:"flutterwave,omitempty"`
}

// OrderGet returns the full order along with the payment context: charge
// amounts in USD and NGN minor units plus gateway publishable keys.
func OrderGet(svc ordersvc.Service, converter *pricing.Converter, keys PublishableKeys, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := buildPaymentContext(order, converter, keys)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponse{Order: order, Payment: payment})
	}
}

// OrderStatus returns just the payment state of an order, cheap enough for
// the storefront to poll while a charge settles.
func OrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderStatusResponse{
			OrderID:       order.PublicID,
			PaymentStatus: order.PaymentStatus,
			PaymentMethod: order.PaymentMethod,
			Total:         order.Total,
		})
	}
}

// OrderTrackItem resolves a single order item by its public token or a
// carrier tracking id.
func OrderTrackItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		item, err := svc.TrackItem(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type orderResponse struct {
	Order   *models.Order  `json:"order"`
	Payment paymentContext `json:"payment"`
}

type orderStatusResponse struct {
	OrderID       string               `json:"order_id"`
	PaymentStatus enums.PaymentStatus  `json:"payment_status"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	Total         decimal.Decimal      `json:"total"`
}

type paymentContext struct {
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	AmountCents int64           `json:"amount_cents"`
	AmountNGN   decimal.Decimal `json:"amount_ngn"`
	AmountKobo  int64           `json:"amount_kobo"`
	Keys        PublishableKeys `json:"keys"`
}

func buildPaymentContext(order *models.Order, converter *pricing.Converter, keys PublishableKeys) (paymentContext, error) {
	if converter == nil {
		return paymentContext{}, pkgerrors.New(pkgerrors.CodeInternal, "currency converter unavailable")
	}

	cents, err := converter.ToMinorUnits(order.Total, enums.CurrencyUSD)
	if err != nil {
		return paymentContext{}, err
	}
	ngn, err := converter.Convert(order.Total, enums.CurrencyNGN)
	if err != nil {
		return paymentContext{}, err
	}
	kobo, err := converter.ToMinorUnits(order.Total, enums.CurrencyNGN)
	if err != nil {
		return paymentContext{}, err
	}

	return paymentContext{
		AmountUSD:   order.Total,
		AmountCents: cents,
		AmountNGN:   ngn,
		AmountKobo:  kobo,
		Keys:        keys,
	}, nil
}
