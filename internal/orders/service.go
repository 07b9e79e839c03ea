package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/internal/cart"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	Snapshot(ctx context.Context, cartID string) (*cart.CartSnapshot, error)
}

type addressLoader interface {
	GetOwned(ctx context.Context, addressID, customerID uuid.UUID) (*models.Address, error)
}

type productLoader interface {
	GetPublishedByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes order materialization and reads.
type Service interface {
	Materialize(ctx context.Context, input MaterializeInput) (*models.Order, error)
	Get(ctx context.Context, publicID string) (*models.Order, error)
	TrackItem(ctx context.Context, key string) (*models.OrderItem, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	carts     cartReader
	addresses addressLoader
	products  productLoader
	taxes     *pricing.TaxTable
	fee       *pricing.ServiceFee
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, carts cartReader, addresses addressLoader, products productLoader, taxes *pricing.TaxTable, fee *pricing.ServiceFee) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if taxes == nil {
		return nil, fmt.Errorf("tax table required")
	}
	if fee == nil {
		return nil, fmt.Errorf("service fee required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		carts:     carts,
		addresses: addresses,
		products:  products,
		taxes:     taxes,
		fee:       fee,
	}, nil
}

// MaterializeInput captures the payload for turning a cart into an order.
type MaterializeInput struct {
	CartID     string
	CustomerID uuid.UUID
	AddressID  uuid.UUID
}

// Materialize freezes the cart into an immutable order. Totals are computed
// once: order tax on the full subtotal, the service fee on the pre-fee
// total, and initial_total written exactly once. The cart itself is left
// untouched until payment succeeds.
func (s *service) Materialize(ctx context.Context, input MaterializeInput) (*models.Order, error) {
	if strings.TrimSpace(input.CartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNoAddress, "shipping address is required")
	}

	address, err := s.addresses.GetOwned(ctx, input.AddressID, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNoAddress, "shipping address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}

	snap, err := s.carts.Snapshot(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	productIDs := make([]uuid.UUID, 0, len(snap.Items))
	for _, line := range snap.Items {
		productIDs = append(productIDs, line.ProductID)
	}
	catalog, err := s.products.GetPublishedByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	order, vendorIDs, err := s.buildOrder(input, address, snap, catalog)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, order); err != nil {
			return err
		}
		return txRepo.AttachVendors(ctx, order.ID, vendorIDs)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	return order, nil
}

func (s *service) buildOrder(input MaterializeInput, address *models.Address, snap *cart.CartSnapshot, catalog map[uuid.UUID]models.Product) (*models.Order, []uuid.UUID, error) {
	subTotal := snap.SubTotal
	shipping := snap.Shipping

	tax := s.taxes.TaxOn(subTotal, address.Country)
	preFee := subTotal.Add(shipping).Add(tax)
	serviceFee := s.fee.FeeOn(preFee)
	total := preFee.Add(serviceFee)

	order := &models.Order{
		ID:         uuid.New(),
		PublicID:   newPublicID(),
		CustomerID: input.CustomerID,
		CartID:     input.CartID,
		Address: models.AddressSnapshot{
			FullName: address.FullName,
			Email:    address.Email,
			Mobile:   address.Mobile,
			Country:  address.Country,
			State:    address.State,
			City:     address.City,
			Line:     address.Line,
			ZipCode:  address.ZipCode,
		},
		SubTotal:     subTotal,
		Shipping:     shipping,
		Tax:          tax,
		ServiceFee:   serviceFee,
		Total:        total,
		InitialTotal: total,
	}

	seen := map[uuid.UUID]struct{}{}
	var vendorIDs []uuid.UUID
	for _, line := range snap.Items {
		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").WithDetails(map[string]any{
				"product_id": line.ProductID,
			})
		}

		// Item tax is charged on the item's own subtotal. Per-line rounding
		// means item figures need not sum to the order-level tax.
		itemTax := s.taxes.TaxOn(line.SubTotal, address.Country)
		itemTotal := line.SubTotal.Add(line.Shipping).Add(itemTax)
		item := models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			PublicID:     newPublicID(),
			ProductID:    line.ProductID,
			VendorID:     product.VendorID,
			Qty:          line.Qty,
			Color:        line.Color,
			Size:         line.Size,
			Price:        line.Price,
			SubTotal:     line.SubTotal,
			Shipping:     line.Shipping,
			Tax:          itemTax,
			Total:        itemTotal,
			InitialTotal: itemTotal,
		}
		if err := CheckItemTotals(&item); err != nil {
			return nil, nil, err
		}
		order.Items = append(order.Items, item)

		if _, dup := seen[product.VendorID]; !dup {
			seen[product.VendorID] = struct{}{}
			vendorIDs = append(vendorIDs, product.VendorID)
		}
	}

	if err := CheckOrderTotals(order); err != nil {
		return nil, nil, err
	}
	return order, vendorIDs, nil
}

// Get loads an order by its public token.
func (s *service) Get(ctx context.Context, publicID string) (*models.Order, error) {
	if strings.TrimSpace(publicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// TrackItem resolves an order item from its public token or a carrier
// tracking id.
func (s *service) TrackItem(ctx context.Context, key string) (*models.OrderItem, error) {
	if strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking key is required")
	}
	item, err := s.repo.FindItemByPublicOrTracking(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return item, nil
}

func newPublicID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
