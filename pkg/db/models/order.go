package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora/storefront-backend/pkg/enums"
)

// AddressSnapshot freezes the shipping destination at materialization time.
type AddressSnapshot struct {
	FullName string `gorm:"column:full_name"`
	Email    string `gorm:"column:email"`
	Mobile   string `gorm:"column:mobile"`
	Country  string `gorm:"column:country"`
	State    string `gorm:"column:state"`
	City     string `gorm:"column:city"`
	Line     string `gorm:"column:line"`
	ZipCode  string `gorm:"column:zip_code"`
}

// Order is the billable unit materialized from a cart at checkout.
// PublicID is the opaque token round-tripped through gateway callback URLs.
//
// Every mutation must preserve
// total == sub_total + shipping + tax + service_fee - saved, and
// initial_total is written exactly once at creation.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PublicID      string               `gorm:"column:public_id;not null;uniqueIndex"`
	CustomerID    uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	CartID        string               `gorm:"column:cart_id;not null"`
	Address       AddressSnapshot      `gorm:"embedded;embeddedPrefix:ship_"`
	SubTotal      decimal.Decimal      `gorm:"column:sub_total;type:numeric(12,2);not null"`
	Shipping      decimal.Decimal      `gorm:"column:shipping;type:numeric(12,2);not null"`
	Tax           decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null"`
	ServiceFee    decimal.Decimal      `gorm:"column:service_fee;type:numeric(12,2);not null"`
	Saved         decimal.Decimal      `gorm:"column:saved;type:numeric(12,2);not null;default:0"`
	Total         decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	InitialTotal  decimal.Decimal      `gorm:"column:initial_total;type:numeric(12,2);not null"`
	PaymentStatus enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'processing'"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	Vendors       []Vendor             `gorm:"many2many:order_vendors"`
	Coupons       []Coupon             `gorm:"many2many:order_coupons"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
