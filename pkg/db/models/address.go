package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved shipping destination owned by a customer.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	FullName   string    `gorm:"column:full_name;not null"`
	Email      string    `gorm:"column:email;not null"`
	Mobile     string    `gorm:"column:mobile"`
	Country    string    `gorm:"column:country;not null"`
	State      string    `gorm:"column:state"`
	City       string    `gorm:"column:city"`
	Line       string    `gorm:"column:line"`
	ZipCode    string    `gorm:"column:zip_code"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
