package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one purchased product line. Items are created in a
// batch at materialization and only coupon application may change
// total/saved afterwards. Tax is computed against the item's own sub_total,
// independently of the order-level figure; the two need not sum identically
// because of per-line rounding, and billing reports rely on both being kept.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	PublicID     string          `gorm:"column:public_id;not null;uniqueIndex"`
	TrackingID   *string         `gorm:"column:tracking_id;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VendorID     uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	Qty          int             `gorm:"column:qty;not null"`
	Color        string          `gorm:"column:color"`
	Size         string          `gorm:"column:size"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	SubTotal     decimal.Decimal `gorm:"column:sub_total;type:numeric(12,2);not null"`
	Shipping     decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Saved        decimal.Decimal `gorm:"column:saved;type:numeric(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	InitialTotal decimal.Decimal `gorm:"column:initial_total;type:numeric(12,2);not null"`
	Coupons      []Coupon        `gorm:"many2many:order_item_coupons"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
