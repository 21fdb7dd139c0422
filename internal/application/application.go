package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/points-grouper/internal/api"
	"github.com/eugenenazirov/points-grouper/internal/catalog"
	"github.com/eugenenazirov/points-grouper/internal/config"
	"github.com/eugenenazirov/points-grouper/internal/grouping"
	"github.com/eugenenazirov/points-grouper/internal/ingest"
	"github.com/eugenenazirov/points-grouper/internal/metrics"
	"github.com/eugenenazirov/points-grouper/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage     storage.Storage
	catalog     *catalog.Catalog
	partitioner grouping.Partitioner
	registry    *prometheus.Registry
	handler     *api.Handler
	router      http.Handler
	logger      *zap.Logger
	server      *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		loaded, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	schema, err := ingest.ParseSchema(cfg.IngestColumns)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest columns: %w", err)
	}

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewPromRecorder(registry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	partitioner := grouping.New()
	handler := api.NewHandler(partitioner, cat, store,
		api.WithDefaultTarget(cfg.DefaultTarget),
		api.WithRecorder(recorder),
		api.WithIngestSchema(schema, cfg.IngestSheet),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)

	routerOpts := []api.RouterOption{
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	if cfg.EnableMetrics {
		routerOpts = append(routerOpts, api.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	apiRouter := api.NewRouter(handler, logger, routerOpts...)

	rootHandler, err := BuildRootHandler(apiRouter)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	logger.Info("application initialized",
		zap.Float64("default_target", cfg.DefaultTarget),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Int("categories", len(cat.Categories())),
		zap.Bool("metrics", cfg.EnableMetrics),
	)

	return &App{
		storage:     store,
		catalog:     cat,
		partitioner: partitioner,
		registry:    registry,
		handler:     handler,
		router:      apiRouter,
		logger:      logger,
		server:      NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that serves static files and routes API requests.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	mux := http.NewServeMux()

	staticPath, err := resolveProjectPath(filepath.Join("web", "static"))
	if err != nil {
		return nil, err
	}
	staticDir := http.Dir(staticPath)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(staticDir)))
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", apiHandler)

	indexPath, err := resolveProjectPath(filepath.Join("web", "templates", "index.html"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases the selection storage. Call it after the server has shut down.
func (a *App) Close() error {
	if err := a.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
