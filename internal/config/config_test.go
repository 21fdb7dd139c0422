package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DEFAULT_TARGET", "CATALOG_FILE", "STORAGE_DRIVER", "STORAGE_PATH",
		"INGEST_COLUMNS", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.DefaultTarget != defaultTarget {
		t.Fatalf("expected default target %v, got %v", defaultTarget, cfg.DefaultTarget)
	}
	if cfg.StorageDriver != "memory" {
		t.Fatalf("expected memory storage, got %s", cfg.StorageDriver)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if !cfg.EnableMetrics || !cfg.EnableRequestLogging {
		t.Fatalf("expected metrics and request logging enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_TARGET", " 3000.5 ")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_PATH", "/tmp/selection.db")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.DefaultTarget != 3000.5 {
		t.Fatalf("expected target 3000.5, got %v", cfg.DefaultTarget)
	}
	if cfg.StorageDriver != "sqlite" || cfg.StoragePath != "/tmp/selection.db" {
		t.Fatalf("unexpected storage settings: %s %s", cfg.StorageDriver, cfg.StoragePath)
	}
	if cfg.RateLimitRPS != 5 {
		t.Fatalf("expected rps 5, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadRejectsInvalidEnvTarget(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_TARGET", "lots")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for non-numeric target")
	}

	t.Setenv("DEFAULT_TARGET", "Inf")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for infinite target")
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("DEFAULT_TARGET", "100")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "7100"
default_target: 2500
log_level: debug
enable_metrics: false
write_timeout: 3s
ingest:
  columns: "name=A,quantity=B,weight=C,price=D"
rate_limit:
  rps: 0
  burst: 0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	port := "7200"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.DefaultTarget != 2500 {
		t.Fatalf("expected YAML target to beat env, got %v", cfg.DefaultTarget)
	}
	if cfg.LogLevel != "debug" || cfg.EnableMetrics {
		t.Fatalf("unexpected YAML values: level=%s metrics=%v", cfg.LogLevel, cfg.EnableMetrics)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("expected write timeout 3s, got %s", cfg.WriteTimeout)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != 0 {
		t.Fatalf("expected rate limit disabled, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.IngestColumns != "name=A,quantity=B,weight=C,price=D" {
		t.Fatalf("unexpected ingest columns %q", cfg.IngestColumns)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to keep its default when omitted from YAML")
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)

	tests := map[string]string{
		"sqlite without path": "storage:\n  driver: sqlite\n",
		"unknown driver":      "storage:\n  driver: postgres\n",
		"bad duration":        "idle_timeout: soon\n",
		"bad columns":         "ingest:\n  columns: \"name=C\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for raw, want := range map[string]float64{"12000": 12000, "-5": -5, "0": 0, " 1.5 ": 1.5} {
			got, err := parseTarget(raw)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", raw, err)
			}
			if got != want {
				t.Fatalf("expected %v for %q, got %v", want, raw, got)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "NaN", "-Inf"} {
			if _, err := parseTarget(raw); err == nil {
				t.Fatalf("expected error for %q", raw)
			}
		}
	})
}
