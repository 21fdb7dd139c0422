package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/points-grouper/internal/ingest"
	"github.com/eugenenazirov/points-grouper/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultTarget         = 12000.0
	defaultMaxUploadBytes = 10 << 20
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	DefaultTarget        float64
	CatalogFile          string
	StorageDriver        string
	StoragePath          string
	IngestColumns        string
	IngestSheet          string
	MaxUploadBytes       int64
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	EnableMetrics        bool
	LogLevel             string
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	DefaultTarget        *float64       `yaml:"default_target"`
	CatalogFile          string         `yaml:"catalog_file"`
	Storage              yamlStorage    `yaml:"storage"`
	Ingest               yamlIngest     `yaml:"ingest"`
	MaxUploadBytes       int64          `yaml:"max_upload_bytes"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	EnableMetrics        *bool          `yaml:"enable_metrics"`
	LogLevel             string         `yaml:"log_level"`
	RateLimit            *yamlRateLimit `yaml:"rate_limit"`
}

// yamlStorage represents the storage section in YAML.
type yamlStorage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// yamlIngest represents the spreadsheet ingestion section in YAML.
type yamlIngest struct {
	Columns string `yaml:"columns"`
	Sheet   string `yaml:"sheet"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	DefaultTarget  *float64
	CatalogFile    *string
	StorageDriver  *string
	StoragePath    *string
	IngestColumns  *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		DefaultTarget:        defaultTarget,
		StorageDriver:        storage.DriverMemory,
		MaxUploadBytes:       defaultMaxUploadBytes,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		EnableMetrics:        true,
		LogLevel:             "info",
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.DefaultTarget != nil {
		cfg.DefaultTarget = *yamlCfg.DefaultTarget
	}
	if yamlCfg.CatalogFile != "" {
		cfg.CatalogFile = yamlCfg.CatalogFile
	}
	if yamlCfg.Storage.Driver != "" {
		cfg.StorageDriver = yamlCfg.Storage.Driver
	}
	if yamlCfg.Storage.Path != "" {
		cfg.StoragePath = yamlCfg.Storage.Path
	}
	if yamlCfg.Ingest.Columns != "" {
		cfg.IngestColumns = yamlCfg.Ingest.Columns
	}
	if yamlCfg.Ingest.Sheet != "" {
		cfg.IngestSheet = yamlCfg.Ingest.Sheet
	}
	if yamlCfg.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = yamlCfg.MaxUploadBytes
	}

	durations := []struct {
		name  string
		raw   string
		value *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.value = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.EnableMetrics != nil {
		cfg.EnableMetrics = *yamlCfg.EnableMetrics
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.RateLimit != nil {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if rawTarget := env("DEFAULT_TARGET"); rawTarget != "" {
		target, err := parseTarget(rawTarget)
		if err != nil {
			return fmt.Errorf("DEFAULT_TARGET: %w", err)
		}
		cfg.DefaultTarget = target
	}

	if catalog := env("CATALOG_FILE"); catalog != "" {
		cfg.CatalogFile = catalog
	}
	if driver := env("STORAGE_DRIVER"); driver != "" {
		cfg.StorageDriver = driver
	}
	if path := env("STORAGE_PATH"); path != "" {
		cfg.StoragePath = path
	}
	if columns := env("INGEST_COLUMNS"); columns != "" {
		cfg.IngestColumns = columns
	}
	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	setString(&cfg.Port, overrides.Port)
	setString(&cfg.CatalogFile, overrides.CatalogFile)
	setString(&cfg.StorageDriver, overrides.StorageDriver)
	setString(&cfg.StoragePath, overrides.StoragePath)
	setString(&cfg.IngestColumns, overrides.IngestColumns)
	setString(&cfg.LogLevel, overrides.LogLevel)

	if overrides.DefaultTarget != nil {
		cfg.DefaultTarget = *overrides.DefaultTarget
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if math.IsNaN(cfg.DefaultTarget) || math.IsInf(cfg.DefaultTarget, 0) {
		return fmt.Errorf("default target must be a finite number")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	switch cfg.StorageDriver {
	case storage.DriverMemory:
	case storage.DriverSQLite:
		if cfg.StoragePath == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if _, err := ingest.ParseSchema(cfg.IngestColumns); err != nil {
		return fmt.Errorf("ingest columns: %w", err)
	}
	return nil
}

// parseTarget parses a group target, rejecting NaN and infinities.
func parseTarget(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("target must be finite, got %q", raw)
	}
	return value, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}
