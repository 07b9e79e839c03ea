package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/storefront-backend/pkg/db/models"
	"github.com/vendora/storefront-backend/pkg/enums"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
	paginationpkg "github.com/vendora/storefront-backend/pkg/pagination"
)

type fakeRepository struct {
	created []*models.Notification

	createFn      func(ctx context.Context, notification *models.Notification) error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error)
	markSeenFn    func(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error)
	markAllSeenFn func(ctx context.Context, recipient Recipient) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) MarkSeen(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error) {
	if f.markSeenFn != nil {
		return f.markSeenFn(ctx, recipient, notificationID)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllSeen(ctx context.Context, recipient Recipient) (int64, error) {
	if f.markAllSeenFn != nil {
		return f.markAllSeenFn(ctx, recipient)
	}
	return 0, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo)
	return svc
}

func customerRecipient(id uuid.UUID) Recipient {
	return Recipient{CustomerID: &id}
}

func TestService_RecordOrderPaidFanOut(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)

	customerID := uuid.New()
	vendorA := uuid.New()
	vendorB := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items: []models.OrderItem{
			{ID: uuid.New(), VendorID: vendorA},
			{ID: uuid.New(), VendorID: vendorB},
		},
	}

	if err := svc.RecordOrderPaid(context.Background(), order); err != nil {
		t.Fatalf("unexpected fan-out error: %v", err)
	}
	if len(repo.created) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.created))
	}

	first := repo.created[0]
	if first.Type != enums.NotificationTypeNewOrder {
		t.Fatalf("expected new_order first, got %s", first.Type)
	}
	if first.CustomerID == nil || *first.CustomerID != customerID {
		t.Fatal("customer notification not addressed to the order's customer")
	}
	if first.VendorID != nil {
		t.Fatal("customer notification must not carry a vendor id")
	}

	wantVendors := map[uuid.UUID]uuid.UUID{
		vendorA: order.Items[0].ID,
		vendorB: order.Items[1].ID,
	}
	for _, n := range repo.created[1:] {
		if n.Type != enums.NotificationTypeNewSale {
			t.Fatalf("expected new_sale, got %s", n.Type)
		}
		if n.VendorID == nil || n.OrderItemID == nil {
			t.Fatal("vendor notification missing vendor or order item id")
		}
		itemID, ok := wantVendors[*n.VendorID]
		if !ok {
			t.Fatalf("unexpected vendor %s", *n.VendorID)
		}
		if *n.OrderItemID != itemID {
			t.Fatalf("vendor %s notified for wrong item", *n.VendorID)
		}
		delete(wantVendors, *n.VendorID)
	}
	if len(wantVendors) != 0 {
		t.Fatalf("%d vendors never notified", len(wantVendors))
	}
}

func TestService_RecordOrderPaidCollectsFailures(t *testing.T) {
	vendorA := uuid.New()
	repo := &fakeRepository{}
	repo.createFn = func(ctx context.Context, n *models.Notification) error {
		if n.VendorID != nil && *n.VendorID == vendorA {
			return errors.New("insert failed")
		}
		return nil
	}
	svc := newServiceWithRepo(repo)

	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Items: []models.OrderItem{
			{ID: uuid.New(), VendorID: vendorA},
			{ID: uuid.New(), VendorID: uuid.New()},
		},
	}

	err := svc.RecordOrderPaid(context.Background(), order)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	// One failed insert must not stop the remaining recipients.
	if len(repo.created) != 3 {
		t.Fatalf("expected all 3 inserts attempted, got %d", len(repo.created))
	}
}

func TestService_ListNotifications(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	second := models.Notification{ID: uuid.New(), CreatedAt: time.Now()}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
			if params.Limit != paginationpkg.LimitWithBuffer(1) {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return []models.Notification{first}, &paginationpkg.Cursor{CreatedAt: second.CreatedAt, ID: second.ID}, nil
		},
	}

	svc := newServiceWithRepo(repo)
	result, err := svc.List(context.Background(), ListParams{Recipient: customerRecipient(uuid.New()), Limit: 1})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatal("expected cursor for next page")
	}
	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("invalid cursor %q: %v", result.Cursor, err)
	}
	if decoded.ID != second.ID {
		t.Fatalf("expected cursor id %s got %s", second.ID, decoded.ID)
	}
}

func TestService_ListNotificationsInvalidCursor(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	_, err := svc.List(context.Background(), ListParams{Recipient: customerRecipient(uuid.New()), Cursor: "bad"})
	if err == nil {
		t.Fatal("expected error for invalid cursor")
	}
	errCode := pkgerrors.As(err).Code()
	if errCode != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", errCode)
	}
}

func TestService_ListRejectsAmbiguousRecipient(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	customerID := uuid.New()
	vendorID := uuid.New()
	_, err := svc.List(context.Background(), ListParams{Recipient: Recipient{CustomerID: &customerID, VendorID: &vendorID}})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.List(context.Background(), ListParams{})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty recipient, got %v", err)
	}
}

func TestService_MarkSeen(t *testing.T) {
	repo := &fakeRepository{
		markSeenFn: func(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error) {
			return notificationMarkResult{Found: true, Updated: true}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkSeen(context.Background(), customerRecipient(uuid.New()), uuid.New()); err != nil {
		t.Fatalf("unexpected mark seen error: %v", err)
	}
}

func TestService_MarkSeenNotFound(t *testing.T) {
	repo := &fakeRepository{
		markSeenFn: func(ctx context.Context, recipient Recipient, notificationID uuid.UUID) (notificationMarkResult, error) {
			return notificationMarkResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkSeen(context.Background(), customerRecipient(uuid.New()), uuid.New()); err == nil {
		t.Fatal("expected not found error")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_MarkAllSeen(t *testing.T) {
	repo := &fakeRepository{
		markAllSeenFn: func(ctx context.Context, recipient Recipient) (int64, error) {
			return 3, nil
		},
	}
	svc := newServiceWithRepo(repo)
	count, err := svc.MarkAllSeen(context.Background(), customerRecipient(uuid.New()))
	if err != nil {
		t.Fatalf("unexpected mark all seen error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 updated rows, got %d", count)
	}
}

func TestService_MarkAllSeenError(t *testing.T) {
	repo := &fakeRepository{
		markAllSeenFn: func(ctx context.Context, recipient Recipient) (int64, error) {
			return 0, errors.New("boom")
		},
	}
	svc := newServiceWithRepo(repo)
	if _, err := svc.MarkAllSeen(context.Background(), customerRecipient(uuid.New())); err == nil {
		t.Fatal("expected error")
	}
}
