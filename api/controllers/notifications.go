package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora/storefront-backend/api/responses"
	"github.com/vendora/storefront-backend/api/validators"
	notifsvc "github.com/vendora/storefront-backend/internal/notifications"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

// NotificationsList pages through a recipient's feed, newest first. Exactly
// one of customer_id or vendor_id must scope the query.
func NotificationsList(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		recipient, err := recipientFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), notifsvc.ListParams{
			Recipient:  recipient,
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
			UnseenOnly: r.URL.Query().Get("unseen") == "true",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// NotificationMarkSeen marks one notification as seen for its recipient.
func NotificationMarkSeen(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		notificationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		var payload recipientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkSeen(r.Context(), payload.toRecipient(), notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"seen": true})
	}
}

// NotificationsMarkAllSeen marks every unseen notification for a recipient.
func NotificationsMarkAllSeen(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		var payload recipientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkAllSeen(r.Context(), payload.toRecipient())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"updated": updated})
	}
}

type recipientRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
	VendorID   *uuid.UUID `json:"vendor_id"`
}

func (r recipientRequest) toRecipient() notifsvc.Recipient {
	return notifsvc.Recipient{CustomerID: r.CustomerID, VendorID: r.VendorID}
}

func recipientFromQuery(r *http.Request) (notifsvc.Recipient, error) {
	var recipient notifsvc.Recipient
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return recipient, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		recipient.CustomerID = &id
	}
	if raw := r.URL.Query().Get("vendor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return recipient, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
		}
		recipient.VendorID = &id
	}
	return recipient, nil
}
