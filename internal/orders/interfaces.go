package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
)

// Repository defines the persistence surface required by order operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	AttachVendors(ctx context.Context, orderID uuid.UUID, vendorIDs []uuid.UUID) error
	FindByPublicID(ctx context.Context, publicID string) (*models.Order, error)
	FindItemByPublicOrTracking(ctx context.Context, key string) (*models.OrderItem, error)
	TransitionPaymentStatus(ctx context.Context, orderID uuid.UUID, from, to enums.PaymentStatus, method *enums.PaymentMethod) (bool, error)
}
