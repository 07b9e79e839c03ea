package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
)

// repository is the gorm-backed implementation of Repository.
type repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// AttachVendors records the distinct vendors participating in the order.
func (r *repository) AttachVendors(ctx context.Context, orderID uuid.UUID, vendorIDs []uuid.UUID) error {
	if len(vendorIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		rows = append(rows, map[string]any{"order_id": orderID, "vendor_id": vendorID})
	}
	return r.db.WithContext(ctx).Table("order_vendors").Create(rows).Error
}

// FindByPublicID loads an order by its public token with items, coupons and
// vendors attached.
func (r *repository) FindByPublicID(ctx context.Context, publicID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.Coupons").
		Preload("Coupons").
		Preload("Vendors").
		Where("public_id = ?", publicID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindItemByPublicOrTracking resolves an order item from either its public
// token or an assigned carrier tracking id.
func (r *repository) FindItemByPublicOrTracking(ctx context.Context, key string) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("public_id = ? OR tracking_id = ?", key, key).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// TransitionPaymentStatus flips payment_status from the expected state to
// the target state in one guarded UPDATE. The boolean result reports
// whether this caller won the transition; a concurrent duplicate sees the
// row already moved and gets false without an error.
func (r *repository) TransitionPaymentStatus(ctx context.Context, orderID uuid.UUID, from, to enums.PaymentStatus, method *enums.PaymentMethod) (bool, error) {
	updates := map[string]any{
		"payment_status": to,
		"updated_at":     time.Now().UTC(),
	}
	if method != nil {
		updates["payment_method"] = *method
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
