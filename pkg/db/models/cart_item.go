package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem persists one line of a session-scoped cart. The cart id is the
// opaque token handed in by the caller, so guest carts need no customer row.
// The (cart_id, product_id) unique index backs the atomic upsert.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     string          `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_cart_product,priority:1"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:2"`
	CustomerID *uuid.UUID      `gorm:"column:customer_id;type:uuid"`
	Qty        int             `gorm:"column:qty;not null"`
	Color      string          `gorm:"column:color"`
	Size       string          `gorm:"column:size"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	SubTotal   decimal.Decimal `gorm:"column:sub_total;type:numeric(12,2);not null"`
	Shipping   decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Product    *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
