package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/pagination"
)

// Service defines notification fan-out and inbox operations.
type Service interface {
	RecordOrderPaid(ctx context.Context, order *models.Order) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkSeen(ctx context.Context, recipient Recipient, notificationID uuid.UUID) error
	MarkAllSeen(ctx context.Context, recipient Recipient) (int64, error)
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

// ListParams configures pagination for one recipient's inbox.
type ListParams struct {
	Recipient  Recipient
	Limit      int
	Cursor     string
	UnseenOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// RecordOrderPaid writes the post-payment fan-out for an order: one
// new_order notification for the customer and one new_sale notification
// per order item for the item's vendor. Failures are collected rather
// than short-circuiting so one vendor's insert cannot starve the rest.
func (s *service) RecordOrderPaid(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	var errs error
	customerID := order.CustomerID
	if err := s.repo.Create(ctx, &models.Notification{
		Type:       enums.NotificationTypeNewOrder,
		CustomerID: &customerID,
	}); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("customer notification: %w", err))
	}

	for i := range order.Items {
		item := order.Items[i]
		vendorID := item.VendorID
		itemID := item.ID
		if err := s.repo.Create(ctx, &models.Notification{
			Type:        enums.NotificationTypeNewSale,
			VendorID:    &vendorID,
			OrderItemID: &itemID,
		}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("vendor %s notification: %w", vendorID, err))
		}
	}
	return errs
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if !params.Recipient.valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one recipient id required")
	}

	query := listNotificationsParams{
		Recipient:  params.Recipient,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnseenOnly: params.UnseenOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkSeen(ctx context.Context, recipient Recipient, notificationID uuid.UUID) error {
	if !recipient.valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkSeen(ctx, recipient, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification seen")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllSeen(ctx context.Context, recipient Recipient) (int64, error) {
	if !recipient.valid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "exactly one recipient id required")
	}

	count, err := s.repo.MarkAllSeen(ctx, recipient)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications seen")
	}
	return count, nil
}
