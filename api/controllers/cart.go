package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendora/storefront-backend/api/middleware"
	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/api/validators"
	cartsvc "github.com/vendora/storefront-backend/internal/cart"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// CartAdd adds a product line to the session's cart, or refreshes the
// existing line when the product is already present.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.AddOrUpdate(r.Context(), cartID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// CartRemove deletes a product line from the session's cart.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload removeCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Remove(r.Context(), cartID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// CartGet returns the session's cart snapshot with aggregate totals.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID := middleware.CartIDFromContext(r.Context())
		if cartID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		snapshot, err := svc.Snapshot(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

type addCartItemRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	Qty        int        `json:"qty" validate:"required,min=1"`
	Color      string     `json:"color"`
	Size       string     `json:"size"`
	CustomerID *uuid.UUID `json:"customer_id"`
}

func (r addCartItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID:  r.ProductID,
		Qty:        r.Qty,
		Color:      validators.SanitizeString(r.Color, 64),
		Size:       validators.SanitizeString(r.Size, 64),
		CustomerID: r.CustomerID,
	}
}

type removeCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}
