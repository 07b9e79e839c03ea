package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendora/storefront-backend/api/middleware"
	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/api/validators"
	ordersvc "github.com/vendora/storefront-backend/internal/orders"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// Checkout freezes the session's cart into an order awaiting payment.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Materialize(r.Context(), ordersvc.MaterializeInput{
			CartID:     cartID,
			CustomerID: payload.CustomerID,
			AddressID:  payload.AddressID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type checkoutRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	AddressID  uuid.UUID `json:"address_id" validate:"required"`
}
