package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/enums"
)

// Product represents the canonical vendor listing. The checkout pipeline
// treats it as read-only reference data supplied by the catalog subsystem.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	Name      string              `gorm:"column:name;not null"`
	Status    enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'draft'"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Shipping  decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null;default:0"`
	Stock     int                 `gorm:"column:stock;not null;default:0"`
	Vendor    *Vendor             `gorm:"foreignKey:VendorID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
