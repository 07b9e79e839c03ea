package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Upsert(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, cartID string, productID uuid.UUID) (int64, error)
	ListByCart(ctx context.Context, cartID string) ([]models.CartItem, error)
	Clear(ctx context.Context, cartID string) error
}
