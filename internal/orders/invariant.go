package orders

import (
	"fmt"

	"github.com/vendora/storefront-backend/pkg/db/models"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

// CheckOrderTotals verifies that
// total == sub_total + shipping + tax + service_fee - saved.
// Mutating code paths call this before committing; a failure means the
// mutation itself is broken and the transaction must roll back.
func CheckOrderTotals(order *models.Order) error {
	expected := order.SubTotal.
		Add(order.Shipping).
		Add(order.Tax).
		Add(order.ServiceFee).
		Sub(order.Saved)
	if !order.Total.Equal(expected) {
		return pkgerrors.New(pkgerrors.CodeInvariantViolation,
			fmt.Sprintf("order %s totals out of balance: total=%s expected=%s", order.PublicID, order.Total, expected))
	}
	return nil
}

// CheckItemTotals is the item-scoped variant; service fee is an
// order-level charge and never appears on items.
func CheckItemTotals(item *models.OrderItem) error {
	expected := item.SubTotal.
		Add(item.Shipping).
		Add(item.Tax).
		Sub(item.Saved)
	if !item.Total.Equal(expected) {
		return pkgerrors.New(pkgerrors.CodeInvariantViolation,
			fmt.Sprintf("order item %s totals out of balance: total=%s expected=%s", item.PublicID, item.Total, expected))
	}
	return nil
}
