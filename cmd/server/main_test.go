package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eugenenazirov/points-grouper/internal/application"
)

func TestBuildRootHandler(t *testing.T) {
	apiInvoked := false
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Fatalf("unexpected path passed to API handler: %s", r.URL.Path)
		}
		apiInvoked = true
		w.WriteHeader(http.StatusNoContent)
	})

	handler, err := application.BuildRootHandler(apiHandler)
	if err != nil {
		t.Fatalf("BuildRootHandler returned error: %v", err)
	}

	t.Run("serves index", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") == "" {
			t.Fatalf("expected Content-Type header for index page")
		}
	})

	t.Run("returns not found for unknown paths", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("forwards api traffic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
		if !apiInvoked {
			t.Fatalf("expected API handler to be invoked")
		}
	})
}

func TestParseFlags(t *testing.T) {
	t.Run("unset flags leave overrides empty", func(t *testing.T) {
		overrides, err := parseFlags(nil)
		if err != nil {
			t.Fatalf("parseFlags returned error: %v", err)
		}
		if overrides.Port != nil || overrides.DefaultTarget != nil || overrides.StorageDriver != nil ||
			overrides.RateLimitRPS != nil || overrides.RateLimitBurst != nil || overrides.LogLevel != nil {
			t.Fatalf("expected no overrides, got %+v", overrides)
		}
	})

	t.Run("explicit flags become overrides", func(t *testing.T) {
		overrides, err := parseFlags([]string{
			"--config", "app.yaml",
			"--port", "9000",
			"--target", "0",
			"--storage", "sqlite",
			"--storage-path", "sel.db",
			"--columns", "name=A,weight=B",
			"--log-level", "debug",
			"--rate-limit-rps", "0",
		})
		if err != nil {
			t.Fatalf("parseFlags returned error: %v", err)
		}
		if overrides.ConfigFile != "app.yaml" || *overrides.Port != "9000" {
			t.Fatalf("unexpected overrides: %+v", overrides)
		}
		if overrides.DefaultTarget == nil || *overrides.DefaultTarget != 0 {
			t.Fatalf("expected explicit zero target to be kept")
		}
		if *overrides.StorageDriver != "sqlite" || *overrides.StoragePath != "sel.db" {
			t.Fatalf("unexpected storage overrides: %+v", overrides)
		}
		if *overrides.IngestColumns != "name=A,weight=B" || *overrides.LogLevel != "debug" {
			t.Fatalf("unexpected ingest or logging overrides: %+v", overrides)
		}
		if overrides.RateLimitRPS == nil || *overrides.RateLimitRPS != 0 || overrides.RateLimitBurst != nil {
			t.Fatalf("unexpected rate limit overrides: %+v", overrides)
		}
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		if _, err := parseFlags([]string{"--storage", "redis"}); err == nil {
			t.Fatalf("expected error for unknown driver")
		}
	})
}
