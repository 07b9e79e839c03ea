package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vendora/storefront-backend/pkg/config"
)

type stubHealthPinger struct {
	err error
}

func (s stubHealthPinger) Ping(context.Context) error {
	return s.err
}

func healthConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLiveAlwaysOK(t *testing.T) {
	handler := HealthLive(healthConfig())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Storefront-Env"); env != "test" {
		t.Fatalf("unexpected env header: %q", env)
	}
}

func TestHealthReadyOK(t *testing.T) {
	handler := HealthReady(healthConfig(), nil, stubHealthPinger{}, stubHealthPinger{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyFailsWhenStoreDown(t *testing.T) {
	handler := HealthReady(healthConfig(), nil, stubHealthPinger{}, stubHealthPinger{err: errors.New("connection refused")})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
