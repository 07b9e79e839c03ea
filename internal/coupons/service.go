package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/internal/orders"
	"github.com/vendora/storefront-backend/internal/pricing"
	"github.com/vendora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes coupon application.
type Service interface {
	Apply(ctx context.Context, orderPublicID, code string) (*ApplyResult, error)
}

type service struct {
	repo   Repository
	orders orders.Repository
	tx     txRunner
}

// NewService builds a coupon service with the required dependencies.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: ordersRepo, tx: tx}, nil
}

// ApplyResult reports the outcome of a coupon application. Matched is false
// when the coupon is valid but covers none of the order's vendors; callers
// surface that as a soft warning rather than an error.
type ApplyResult struct {
	Matched  bool            `json:"matched"`
	Discount decimal.Decimal `json:"discount"`
	Order    *models.Order   `json:"order"`
}

// Apply discounts every order item issued by the coupon's vendor and not
// already carrying the coupon, then rolls the accumulated discount up into
// the order. A coupon already present in the order's coupon set is
// rejected; the whole application runs in one transaction and re-verifies
// the money invariant before committing.
func (s *service) Apply(ctx context.Context, orderPublicID, code string) (*ApplyResult, error) {
	if strings.TrimSpace(orderPublicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	var result *ApplyResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		coupon, err := repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}

		order, err := ordersRepo.FindByPublicID(ctx, orderPublicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		for _, applied := range order.Coupons {
			if applied.ID == coupon.ID {
				return pkgerrors.New(pkgerrors.CodeAlreadyApplied, "coupon already applied to order")
			}
		}

		totalDiscount := decimal.Zero
		for i := range order.Items {
			item := &order.Items[i]
			if item.VendorID != coupon.VendorID {
				continue
			}
			if itemHasCoupon(item, coupon.ID) {
				continue
			}

			discount := pricing.Percent(item.Total, coupon.DiscountPercent)
			item.Total = item.Total.Sub(discount)
			item.Saved = item.Saved.Add(discount)
			if err := orders.CheckItemTotals(item); err != nil {
				return err
			}
			if err := repo.UpdateItemMoney(ctx, item.ID, item.Total, item.Saved); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item totals")
			}
			if err := repo.AttachToItem(ctx, item.ID, coupon.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach coupon to item")
			}
			totalDiscount = totalDiscount.Add(discount)
		}

		result = &ApplyResult{Order: order, Discount: totalDiscount}
		if totalDiscount.IsZero() {
			// Valid coupon, no vendor overlap: nothing to attach.
			return nil
		}
		result.Matched = true

		order.Total = order.Total.Sub(totalDiscount)
		order.Saved = order.Saved.Add(totalDiscount)
		if err := orders.CheckOrderTotals(order); err != nil {
			return err
		}
		if err := repo.UpdateOrderMoney(ctx, order.ID, order.Total, order.Saved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
		}
		if err := repo.AttachToOrder(ctx, order.ID, coupon.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach coupon to order")
		}
		order.Coupons = append(order.Coupons, *coupon)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func itemHasCoupon(item *models.OrderItem, couponID uuid.UUID) bool {
	for _, c := range item.Coupons {
		if c.ID == couponID {
			return true
		}
	}
	return false
}
