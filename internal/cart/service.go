package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart mutation and read operations.
type Service interface {
	AddOrUpdate(ctx context.Context, cartID string, input AddItemInput) (*Summary, error)
	Remove(ctx context.Context, cartID string, productID uuid.UUID) (*Summary, error)
	Snapshot(ctx context.Context, cartID string) (*CartSnapshot, error)
	Clear(ctx context.Context, cartID string) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// AddItemInput captures the payload for adding or refreshing a cart line.
type AddItemInput struct {
	ProductID  uuid.UUID
	Qty        int
	Color      string
	Size       string
	CustomerID *uuid.UUID
}

// Summary reports the cart's aggregate state after a mutation.
type Summary struct {
	Count    int             `json:"count"`
	SubTotal decimal.Decimal `json:"sub_total"`
}

// CartSnapshot is the full read model of a cart.
type CartSnapshot struct {
	CartID   string            `json:"cart_id"`
	Items    []models.CartItem `json:"items"`
	Count    int               `json:"count"`
	SubTotal decimal.Decimal   `json:"sub_total"`
	Shipping decimal.Decimal   `json:"shipping"`
	Total    decimal.Decimal   `json:"total"`
}

// AddOrUpdate adds a product line to the cart, or replaces the existing
// line's quantity and snapshot when the product is already present. Price,
// shipping and totals are always re-read from the catalog, so a stale line
// never survives an update.
func (s *service) AddOrUpdate(ctx context.Context, cartID string, input AddItemInput) (*Summary, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadPublished(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < input.Qty {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product").WithDetails(map[string]any{
			"product_id": product.ID,
			"available":  product.Stock,
			"requested":  input.Qty,
		})
	}

	line := buildLine(cartID, product, input)

	var summary *Summary
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Upsert(ctx, line); err != nil {
			return err
		}
		summary, err = summarize(ctx, txRepo, cartID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart line")
	}
	return summary, nil
}

// Remove deletes a product line and returns the refreshed aggregate state.
func (s *service) Remove(ctx context.Context, cartID string, productID uuid.UUID) (*Summary, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var summary *Summary
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		affected, err := txRepo.Delete(ctx, cartID, productID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		summary, err = summarize(ctx, txRepo, cartID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return summary, nil
}

// Snapshot returns the cart's lines with aggregate money figures. An
// unknown cart id yields an empty snapshot, not an error.
func (s *service) Snapshot(ctx context.Context, cartID string) (*CartSnapshot, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	items, err := s.repo.ListByCart(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	snap := &CartSnapshot{CartID: cartID, Items: items, Count: len(items)}
	for _, item := range items {
		snap.SubTotal = snap.SubTotal.Add(item.SubTotal)
		snap.Shipping = snap.Shipping.Add(item.Shipping)
		snap.Total = snap.Total.Add(item.Total)
	}
	return snap, nil
}

// Clear drops every line in the cart.
func (s *service) Clear(ctx context.Context, cartID string) error {
	if strings.TrimSpace(cartID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if err := s.repo.Clear(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) loadPublished(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	// Unpublished products are indistinguishable from missing ones to buyers.
	if product.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func buildLine(cartID string, product *models.Product, input AddItemInput) *models.CartItem {
	qty := decimal.NewFromInt(int64(input.Qty))
	subTotal := product.Price.Mul(qty)
	shipping := product.Shipping.Mul(qty)
	return &models.CartItem{
		CartID:     cartID,
		ProductID:  product.ID,
		CustomerID: input.CustomerID,
		Qty:        input.Qty,
		Color:      input.Color,
		Size:       input.Size,
		Price:      product.Price,
		SubTotal:   subTotal,
		Shipping:   shipping,
		Total:      subTotal.Add(shipping),
	}
}

func summarize(ctx context.Context, repo CartRepository, cartID string) (*Summary, error) {
	items, err := repo.ListByCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Count: len(items)}
	for _, item := range items {
		summary.SubTotal = summary.SubTotal.Add(item.SubTotal)
	}
	return summary, nil
}
