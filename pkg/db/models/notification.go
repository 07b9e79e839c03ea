package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora/storefront-backend/pkg/enums"
)

// Notification is a create-only inbox record. Exactly one of CustomerID or
// VendorID is set; vendor sale notifications also carry the order item that
// triggered them.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type        enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	CustomerID  *uuid.UUID             `gorm:"column:customer_id;type:uuid;index"`
	VendorID    *uuid.UUID             `gorm:"column:vendor_id;type:uuid;index"`
	OrderItemID *uuid.UUID             `gorm:"column:order_item_id;type:uuid"`
	Seen        bool                   `gorm:"column:seen;not null;default:false"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
