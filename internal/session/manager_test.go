package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendora/storefront-backend/pkg/config"
)

type memoryStore struct {
	sessions map[string]string
	ttls     map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) StoreCartSession(ctx context.Context, token, cartID string, ttl time.Duration) error {
	m.sessions[token] = cartID
	m.ttls[token] = ttl
	return nil
}

func (m *memoryStore) GetCartSession(ctx context.Context, token string) (string, error) {
	cartID, ok := m.sessions[token]
	if !ok {
		return "", redis.Nil
	}
	return cartID, nil
}

func (m *memoryStore) RevokeCartSession(ctx context.Context, token string) error {
	delete(m.sessions, token)
	delete(m.ttls, token)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *memoryStore) {
	t.Helper()

	store := newMemoryStore()
	manager, err := NewManager(store, config.SessionConfig{CartTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager, store
}

func TestResolve_MintsNewSession(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	sess, err := manager.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !sess.New {
		t.Fatal("expected freshly minted session")
	}
	if sess.Token == "" || sess.CartID == "" {
		t.Fatalf("incomplete session %+v", sess)
	}
	if store.sessions[sess.Token] != sess.CartID {
		t.Fatal("binding not persisted")
	}
	if store.ttls[sess.Token] != time.Hour {
		t.Fatalf("ttl = %s, want 1h", store.ttls[sess.Token])
	}
}

func TestResolve_ReusesExistingBinding(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	first, err := manager.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := manager.Resolve(context.Background(), first.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.New {
		t.Fatal("known token must not mint a new session")
	}
	if second.CartID != first.CartID {
		t.Fatalf("cart id changed from %s to %s", first.CartID, second.CartID)
	}
}

func TestResolve_UnknownTokenMintsFresh(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	sess, err := manager.Resolve(context.Background(), "expired-token")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !sess.New {
		t.Fatal("expired token must mint a new session")
	}
	if sess.Token == "expired-token" {
		t.Fatal("expired token must not be reused")
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	sess, err := manager.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := manager.Revoke(context.Background(), sess.Token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, ok := store.sessions[sess.Token]; ok {
		t.Fatal("binding still present after revoke")
	}

	// Revoking a blank token is a no-op, not an error.
	if err := manager.Revoke(context.Background(), ""); err != nil {
		t.Fatalf("Revoke blank: %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(nil, config.SessionConfig{CartTTL: time.Hour}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(newMemoryStore(), config.SessionConfig{}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
