package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/points-grouper/internal/catalog"
	"github.com/eugenenazirov/points-grouper/internal/grouping"
	"github.com/eugenenazirov/points-grouper/internal/ingest"
	"github.com/eugenenazirov/points-grouper/internal/metrics"
	"github.com/eugenenazirov/points-grouper/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultTarget         = 12000
	defaultMaxUploadBytes = 10 << 20
	maxQuantity           = 10_000
)

// Handler wires the partitioner, catalog and selection storage into HTTP handlers.
type Handler struct {
	partitioner grouping.Partitioner
	catalog     *catalog.Catalog
	storage     storage.Storage
	recorder    metrics.Recorder

	clock          func() time.Time
	defaultTarget  float64
	schema         ingest.Schema
	sheet          string
	maxUploadBytes int64
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithDefaultTarget sets the target used when a request omits one.
func WithDefaultTarget(target float64) HandlerOption {
	return func(h *Handler) {
		h.defaultTarget = target
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// WithIngestSchema sets the column schema and sheet used for uploads that do not specify their own.
func WithIngestSchema(schema ingest.Schema, sheet string) HandlerOption {
	return func(h *Handler) {
		h.schema = schema
		h.sheet = sheet
	}
}

// WithMaxUploadBytes limits the size of uploaded spreadsheets.
func WithMaxUploadBytes(limit int64) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(partitioner grouping.Partitioner, cat *catalog.Catalog, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		partitioner: partitioner,
		catalog:     cat,
		storage:     store,
		recorder:    metrics.Nop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		defaultTarget:  defaultTarget,
		schema:         ingest.DefaultSchema(),
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, catalogResponse{Categories: h.catalog.Categories()})
}

func (h *Handler) handleLookupCode(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.LookupCode(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown product code", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type catalogResponse struct {
	Categories []catalog.Category `json:"categories"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
