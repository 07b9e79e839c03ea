package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications. Rows are
// create-only; the only mutation allowed after insert is the seen flag.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkSeen(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error)
	MarkAllSeen(ctx context.Context, recipient Recipient) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// Recipient scopes queries to one inbox. Exactly one of the two ids is set.
type Recipient struct {
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
}

func (r Recipient) valid() bool {
	return (r.CustomerID != nil) != (r.VendorID != nil)
}

type listNotificationsParams struct {
	Recipient  Recipient
	Limit      int
	Cursor     *pagination.Cursor
	UnseenOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func scopeRecipient(query *gorm.DB, recipient Recipient) *gorm.DB {
	if recipient.CustomerID != nil {
		return query.Where("customer_id = ?", *recipient.CustomerID)
	}
	return query.Where("vendor_id = ?", *recipient.VendorID)
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := scopeRecipient(r.db.WithContext(ctx).Model(&models.Notification{}), params.Recipient)
	if params.UnseenOnly {
		query = query.Where("seen = FALSE")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		next := notifications[normalized]
		notifications = notifications[:normalized]
		return notifications, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkSeen(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error) {
	result := scopeRecipient(r.db.WithContext(ctx).Model(&models.Notification{}), recipient).
		Where("id = ? AND seen = FALSE", notificationID).
		UpdateColumn("seen", true)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := scopeRecipient(r.db.WithContext(ctx).Model(&models.Notification{}), recipient).
		Where("id = ?", notificationID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllSeen(ctx context.Context, recipient Recipient) (int64, error) {
	result := scopeRecipient(r.db.WithContext(ctx).Model(&models.Notification{}), recipient).
		Where("seen = FALSE").
		UpdateColumn("seen", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
