package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/api/validators"
	couponsvc "github.com/vendora/storefront-backend/internal/coupons"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// CouponApply applies a coupon code to an existing order. A valid coupon
// with no matching vendor items still succeeds with matched=false so the
// storefront can tell the buyer why nothing changed.
func CouponApply(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Apply(r.Context(), chi.URLParam(r, "orderID"), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}
