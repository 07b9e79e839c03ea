package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
)

// Repository manages a customer's saved shipping addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new address for the customer.
func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// GetOwned loads an address only when it belongs to the given customer.
// A foreign address is reported as gorm.ErrRecordNotFound rather than a
// permission error, so callers cannot probe other customers' address ids.
func (r *Repository) GetOwned(ctx context.Context, addressID, customerID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ListByCustomer returns the customer's addresses, most recent first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
