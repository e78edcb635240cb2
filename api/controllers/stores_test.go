package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/persibuloi/kamenic/internal/store"
	"github.com/persibuloi/kamenic/pkg/config"
)

type stubGroup struct {
	reports []store.Report
	err     error
}

func (g stubGroup) Reports() []store.Report              { return g.reports }
func (g stubGroup) RefreshAll(ctx context.Context) error { return g.err }

func TestStoresRefreshPartialFailureStillSucceeds(t *testing.T) {
	group := stubGroup{
		reports: []store.Report{
			{Name: "products", Status: store.StatusReady, Items: 12},
			{Name: "blog", Status: store.StatusError, Error: "timeout"},
		},
		err: errors.New("blog: timeout"),
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/refresh", nil)
	resp := httptest.NewRecorder()

	StoresRefresh(group, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"error":"timeout"`) {
		t.Fatalf("expected per-store error in body, got %s", resp.Body.String())
	}
}

func TestStoresRefreshFailsWhenEveryStoreFails(t *testing.T) {
	group := stubGroup{
		reports: []store.Report{
			{Name: "products", Status: store.StatusError, Error: "timeout"},
			{Name: "blog", Status: store.StatusError, Error: "timeout"},
		},
		err: errors.New("timeout"),
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/refresh", nil)
	resp := httptest.NewRecorder()

	StoresRefresh(group, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestHealthReadyFailsWithoutRedis(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()

	HealthReady(&config.Config{App: config.AppConfig{Env: "dev"}}, nil, failingPinger{}, stubGroup{}).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }
