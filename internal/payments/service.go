package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/internal/orders"
	"github.com/vendora/storefront-backend/internal/payments/gateways"
	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	"github.com/vendora/storefront-backend/pkg/logger"
)

type verifierRegistry interface {
	For(method enums.PaymentMethod) (gateways.Verifier, error)
}

type cartClearer interface {
	Clear(ctx context.Context, cartID string) error
}

type saleNotifier interface {
	RecordOrderPaid(ctx context.Context, order *models.Order) error
}

// Service reconciles gateway outcomes into the order's payment status.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

type service struct {
	orders   orders.Repository
	registry verifierRegistry
	carts    cartClearer
	notifier saleNotifier
	logg     *logger.Logger
}

// NewService wires the payment reconciler.
func NewService(ordersRepo orders.Repository, registry verifierRegistry, carts cartClearer, notifier saleNotifier, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   ordersRepo,
		registry: registry,
		carts:    carts,
		notifier: notifier,
		logg:     logg,
	}, nil
}

// ConfirmInput names the order, which gateway the customer paid through and
// the provider-issued proof to verify.
type ConfirmInput struct {
	OrderPublicID string
	Method        enums.PaymentMethod
	Proof         string
}

// ConfirmResult reports the payment status after reconciliation. Settled is
// true when the gateway confirmed capture, regardless of which concurrent
// confirmation won the status transition.
type ConfirmResult struct {
	Order   *models.Order       `json:"order"`
	Status  enums.PaymentStatus `json:"status"`
	Settled bool                `json:"settled"`
}

// Confirm verifies the payment proof with its gateway and drives the order
// out of processing. The processing->paid transition is a guarded update, so
// exactly one of any number of concurrent confirmations clears the cart and
// fans out notifications; the rest observe the terminal state. A gateway
// failure leaves the order in processing so the customer can retry.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if strings.TrimSpace(input.OrderPublicID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if strings.TrimSpace(input.Proof) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof is required")
	}

	order, err := s.loadOrder(ctx, input.OrderPublicID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus.IsTerminal() {
		// Duplicate confirmation of a settled order is a no-op.
		return &ConfirmResult{Order: order, Status: order.PaymentStatus, Settled: order.PaymentStatus == enums.PaymentStatusPaid}, nil
	}

	verifier, err := s.registry.For(input.Method)
	if err != nil {
		return nil, err
	}
	result, err := verifier.Verify(ctx, input.Proof)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithGateway(s.logg.WithOrderID(ctx, order.PublicID), input.Method.String())

	if !result.Completed {
		return s.markFailed(ctx, logCtx, order)
	}
	return s.markPaid(ctx, logCtx, order, input.Method)
}

func (s *service) markPaid(ctx, logCtx context.Context, order *models.Order, method enums.PaymentMethod) (*ConfirmResult, error) {
	won, err := s.orders.TransitionPaymentStatus(ctx, order.ID, enums.PaymentStatusProcessing, enums.PaymentStatusPaid, &method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record paid status")
	}
	if !won {
		// A concurrent confirmation got there first; report what it decided.
		current, err := s.loadOrder(ctx, order.PublicID)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{Order: current, Status: current.PaymentStatus, Settled: true}, nil
	}

	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaymentMethod = &method

	// Side effects ride on winning the transition, never the other way
	// around: a failed cleanup or notification must not unwind a payment
	// the gateway already captured.
	if err := s.carts.Clear(ctx, order.CartID); err != nil {
		s.logg.Error(logCtx, "clear cart after payment", err)
	}
	if err := s.notifier.RecordOrderPaid(ctx, order); err != nil {
		s.logg.Error(logCtx, "notification fan-out after payment", err)
	}

	s.logg.Info(logCtx, "payment confirmed")
	return &ConfirmResult{Order: order, Status: enums.PaymentStatusPaid, Settled: true}, nil
}

func (s *service) markFailed(ctx, logCtx context.Context, order *models.Order) (*ConfirmResult, error) {
	won, err := s.orders.TransitionPaymentStatus(ctx, order.ID, enums.PaymentStatusProcessing, enums.PaymentStatusFailed, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed status")
	}
	if !won {
		current, err := s.loadOrder(ctx, order.PublicID)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{Order: current, Status: current.PaymentStatus, Settled: current.PaymentStatus == enums.PaymentStatusPaid}, nil
	}

	order.PaymentStatus = enums.PaymentStatusFailed
	s.logg.Warn(logCtx, "payment declined by gateway")
	return &ConfirmResult{Order: order, Status: enums.PaymentStatusFailed, Settled: false}, nil
}

func (s *service) loadOrder(ctx context.Context, publicID string) (*models.Order, error) {
	order, err := s.orders.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
