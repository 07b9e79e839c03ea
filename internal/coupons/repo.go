package coupons

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the coupon engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	AttachToOrder(ctx context.Context, orderID, couponID uuid.UUID) error
	AttachToItem(ctx context.Context, itemID, couponID uuid.UUID) error
	UpdateItemMoney(ctx context.Context, itemID uuid.UUID, total, saved decimal.Decimal) error
	UpdateOrderMoney(ctx context.Context, orderID uuid.UUID, total, saved decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a coupon repository bound to the provided DB.
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

// FindByCode loads a coupon by its unique code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// AttachToOrder records the coupon in the order's coupon set.
func (r *repository) AttachToOrder(ctx context.Context, orderID, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).Table("order_coupons").
		Create(map[string]any{"order_id": orderID, "coupon_id": couponID}).Error
}

// AttachToItem records the coupon on a single order item.
func (r *repository) AttachToItem(ctx context.Context, itemID, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).Table("order_item_coupons").
		Create(map[string]any{"order_item_id": itemID, "coupon_id": couponID}).Error
}

// UpdateItemMoney writes the discounted total and cumulative savings of an
// item.
func (r *repository) UpdateItemMoney(ctx context.Context, itemID uuid.UUID, total, saved decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"total": total, "saved": saved}).Error
}

// UpdateOrderMoney writes the discounted total and cumulative savings of an
// order. sub_total, shipping, tax and service_fee are immutable after
// materialization.
func (r *repository) UpdateOrderMoney(ctx context.Context, orderID uuid.UUID, total, saved decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{"total": total, "saved": saved}).Error
}
