package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
	"github.com/eugenenazirov/points-grouper/internal/storage"
)

// Selection sources recorded on entries.
const (
	sourceCode   = "code"
	sourceMenu   = "menu"
	sourceManual = "manual"
)

func (h *Handler) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	_ = r
	entries, err := h.storage.List()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(entries))
}

func (h *Handler) handleAddSelection(w http.ResponseWriter, r *http.Request) {
	var req addSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 || quantity > maxQuantity {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
		return
	}

	item, source, status, err := h.resolveSelection(req)
	if err != nil {
		writeError(w, status, "Invalid selection", err.Error())
		return
	}

	entries := storage.NewEntries(item, quantity, source, h.clock())
	if err := h.storage.Add(entries); err != nil {
		if errors.Is(err, storage.ErrInvalidEntry) {
			writeError(w, http.StatusBadRequest, "Invalid selection", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, addSelectionResponse{Added: entries})
}

// resolveSelection turns a request into an item by code, by category menu,
// or from manually supplied values, in that order of preference.
func (h *Handler) resolveSelection(req addSelectionRequest) (grouping.Item, string, int, error) {
	switch {
	case strings.TrimSpace(req.Code) != "":
		code := strings.TrimSpace(req.Code)
		product, err := h.catalog.LookupCode(code)
		if err != nil {
			return grouping.Item{}, "", http.StatusNotFound, err
		}
		return product.Item(code), sourceCode, 0, nil
	case strings.TrimSpace(req.Category) != "":
		product, err := h.catalog.Product(strings.TrimSpace(req.Category), strings.TrimSpace(req.Product))
		if err != nil {
			return grouping.Item{}, "", http.StatusNotFound, err
		}
		return product.Item(product.Name), sourceMenu, 0, nil
	case strings.TrimSpace(req.Label) != "":
		if req.Weight == nil {
			return grouping.Item{}, "", http.StatusBadRequest, errors.New("weight is required for manual entries")
		}
		item := grouping.Item{
			Label:     strings.TrimSpace(req.Label),
			Weight:    *req.Weight,
			Auxiliary: req.Auxiliary,
		}
		return item, sourceManual, 0, nil
	default:
		return grouping.Item{}, "", http.StatusBadRequest, errors.New("provide a code, a category and product, or a label and weight")
	}
}

func (h *Handler) handleRemoveSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Remove(r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	_ = r
	if err := h.storage.Clear(); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addSelectionRequest struct {
	Code      string             `json:"code"`
	Category  string             `json:"category"`
	Product   string             `json:"product"`
	Label     string             `json:"label"`
	Weight    *float64           `json:"weight"`
	Auxiliary map[string]float64 `json:"auxiliary"`
	Quantity  *int               `json:"quantity"`
}

type addSelectionResponse struct {
	Added []storage.Entry `json:"added"`
}

type selectionResponse struct {
	Entries     []storage.Entry `json:"entries"`
	Lines       []storage.Line  `json:"lines"`
	TotalItems  int             `json:"totalItems"`
	TotalWeight float64         `json:"totalWeight"`
}

func newSelectionResponse(entries []storage.Entry) selectionResponse {
	resp := selectionResponse{
		Entries:    entries,
		Lines:      storage.Tally(entries),
		TotalItems: len(entries),
	}
	for _, entry := range entries {
		resp.TotalWeight += entry.Weight
	}
	return resp
}
