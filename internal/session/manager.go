package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vendora/storefront-backend/pkg/config"
	pkgerrors "github.com/vendora/storefront-backend/pkg/errors"
)

type store interface {
	StoreCartSession(ctx context.Context, token, cartID string, ttl time.Duration) error
	GetCartSession(ctx context.Context, token string) (string, error)
	RevokeCartSession(ctx context.Context, token string) error
}

// Manager binds anonymous session tokens to cart ids in Redis. The binding
// carries a sliding TTL so an active shopper's cart survives as long as
// they keep coming back.
type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager wires the session manager.
func NewManager(s store, cfg config.SessionConfig) (*Manager, error) {
	if s == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.CartTTL <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &Manager{store: s, ttl: cfg.CartTTL}, nil
}

// Session is a resolved token-to-cart binding. New reports that the token
// was minted on this request and must be handed back to the client.
type Session struct {
	Token  string
	CartID string
	New    bool
}

// Resolve maps a session token to its cart id, minting a fresh session when
// the token is empty, unknown or expired. Every hit renews the TTL.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return m.mint(ctx)
	}

	cartID, err := m.store.GetCartSession(ctx, token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return m.mint(ctx)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}

	if err := m.store.StoreCartSession(ctx, token, cartID, m.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "renew cart session")
	}
	return &Session{Token: token, CartID: cartID}, nil
}

// Revoke drops the binding, typically after the cart was consumed by checkout.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := m.store.RevokeCartSession(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke cart session")
	}
	return nil
}

func (m *Manager) mint(ctx context.Context) (*Session, error) {
	token := newOpaqueID()
	cartID := newOpaqueID()
	if err := m.store.StoreCartSession(ctx, token, cartID, m.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart session")
	}
	return &Session{Token: token, CartID: cartID, New: true}, nil
}

func newOpaqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
