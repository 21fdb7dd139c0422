package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/points-grouper/internal/application"
	"github.com/eugenenazirov/points-grouper/internal/config"
	"github.com/eugenenazirov/points-grouper/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "invalid arguments")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", zap.Error(err))
		}
	}()

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// parseFlags maps command-line flags onto config overrides. Only flags the
// user actually set end up in the result.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	app := kingpin.New("points-grouper", "Points Grouper - splits selected items into groups close to a points target")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	port := app.Flag("port", "HTTP port exposed by the service").String()
	var targetSet bool
	target := app.Flag("target", "Default points target per group").IsSetByUser(&targetSet).Float64()
	catalogFile := app.Flag("catalog", "Path to YAML product catalog").String()
	storageDriver := app.Flag("storage", "Selection storage driver").Enum("memory", "sqlite")
	storagePath := app.Flag("storage-path", "SQLite database path").String()
	columns := app.Flag("columns", "Spreadsheet column mapping, e.g. name=C,quantity=D,weight=E").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPS := app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *port != "" {
		overrides.Port = port
	}
	if targetSet {
		overrides.DefaultTarget = target
	}
	if *catalogFile != "" {
		overrides.CatalogFile = catalogFile
	}
	if *storageDriver != "" {
		overrides.StorageDriver = storageDriver
	}
	if *storagePath != "" {
		overrides.StoragePath = storagePath
	}
	if *columns != "" {
		overrides.IngestColumns = columns
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *rateLimitRPS >= 0 {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		overrides.RateLimitBurst = rateLimitBurst
	}

	return overrides, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
