package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bimakw/recipient-scanner/internal/testutil"
)

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name         string
		cache        HealthChecker
		expectStatus string
		expectCache  string
	}{
		{"cache healthy", testutil.NewMockHealthChecker(true), "healthy", "healthy"},
		{"cache unhealthy", testutil.NewMockHealthChecker(false), "degraded", "unhealthy: health check failed"},
		{"cache disabled", nil, "healthy", "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupTestServer()
			handler := NewHealthHandler(tt.cache, srv.registry)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			handler.Health(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rec.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Status != tt.expectStatus {
				t.Errorf("expected status %s, got %s", tt.expectStatus, response.Status)
			}
			if response.Services["cache"] != tt.expectCache {
				t.Errorf("expected cache %q, got %q", tt.expectCache, response.Services["cache"])
			}
			if response.Chains["testchain"] != "live" || response.Chains["demochain"] != "demo" {
				t.Errorf("unexpected chain modes: %v", response.Chains)
			}
			if response.Timestamp == "" {
				t.Error("expected non-empty timestamp")
			}
		})
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name   string
		cache  HealthChecker
		status int
	}{
		{"no cache", nil, http.StatusOK},
		{"healthy cache", testutil.NewMockHealthChecker(true), http.StatusOK},
		{"unhealthy cache", testutil.NewMockHealthChecker(false), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupTestServer()
			handler := NewHealthHandler(tt.cache, srv.registry)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			handler.Ready(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHealthHandler_Live(t *testing.T) {
	srv := setupTestServer()
	handler := NewHealthHandler(nil, srv.registry)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	handler.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "alive" {
		t.Errorf("expected body 'alive', got %s", rec.Body.String())
	}
}
