package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/points-grouper/internal/export"
	"github.com/eugenenazirov/points-grouper/internal/grouping"
	"github.com/eugenenazirov/points-grouper/internal/ingest"
	"github.com/eugenenazirov/points-grouper/internal/storage"
)

const multipartMemory = 8 << 20

func (h *Handler) handleGroups(w http.ResponseWriter, r *http.Request) {
	items, target, ok := h.decodeGroupRequest(w, r)
	if !ok {
		return
	}
	h.respondGroups(w, items, target)
}

func (h *Handler) handleExportGroups(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "use format=csv or format=xlsx")
		return
	}

	items, target, ok := h.decodeGroupRequest(w, r)
	if !ok {
		return
	}
	groups, _ := h.partition(items, target)

	var buf bytes.Buffer
	if err := export.Write(&buf, format, groups); err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="groups.%s"`, format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleUploadGroups(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large",
			fmt.Sprintf("request body of %d bytes exceeds the limit", r.ContentLength),
			fmt.Sprintf("files must be at most %d bytes", h.maxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err.Error(),
				fmt.Sprintf("files must be at most %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload", "expected a multipart form with a file field")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	target := h.defaultTarget
	if raw := strings.TrimSpace(r.FormValue("target")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid target", fmt.Sprintf("invalid number %q", raw))
			return
		}
		if err := grouping.ValidateTarget(parsed); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid target", err.Error())
			return
		}
		target = parsed
	}

	schema := h.schema
	if columns := strings.TrimSpace(r.FormValue("columns")); columns != "" {
		parsed, err := ingest.ParseSchema(columns)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid columns", err.Error(), "use field=column pairs, e.g. name=C,quantity=D,weight=E")
			return
		}
		schema = parsed
	}
	sheet := h.sheet
	if s := strings.TrimSpace(r.FormValue("sheet")); s != "" {
		sheet = s
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", "missing file field")
		return
	}
	defer file.Close()

	format, err := ingest.FormatFromFilename(header.Filename)
	if err != nil {
		h.recorder.ObserveIngest("unknown", 0, err)
		writeError(w, http.StatusBadRequest, "Invalid upload", err.Error(), "upload a .csv or .xlsx file")
		return
	}

	items, err := ingest.Read(header.Filename, file, schema, sheet)
	h.recorder.ObserveIngest(format, len(items), err)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err.Error())
		return
	}

	h.respondGroups(w, items, target)
}

// decodeGroupRequest reads the target and items, falling back to the
// configured default target and to a snapshot of the selection list. An empty
// body uses both fallbacks.
func (h *Handler) decodeGroupRequest(w http.ResponseWriter, r *http.Request) ([]grouping.Item, float64, bool) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return nil, 0, false
	}

	target := h.defaultTarget
	if req.Target != nil {
		target = *req.Target
	}
	if err := grouping.ValidateTarget(target); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target", err.Error())
		return nil, 0, false
	}

	var items []grouping.Item
	if req.Items == nil {
		entries, err := h.storage.List()
		if err != nil {
			writeInternalError(w, err)
			return nil, 0, false
		}
		items = storage.Snapshot(entries)
	} else {
		items = make([]grouping.Item, 0, len(req.Items))
		for i, payload := range req.Items {
			if strings.TrimSpace(payload.Label) == "" || payload.Weight == nil {
				writeError(w, http.StatusBadRequest, "Invalid items", fmt.Sprintf("item %d needs a label and a weight", i))
				return nil, 0, false
			}
			items = append(items, grouping.Item{Label: payload.Label, Weight: *payload.Weight, Auxiliary: payload.Auxiliary})
		}
	}

	if err := grouping.ValidateItems(items); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid items", err.Error())
		return nil, 0, false
	}

	return items, target, true
}

func (h *Handler) partition(items []grouping.Item, target float64) ([]grouping.Group, time.Duration) {
	start := time.Now()
	groups := h.partitioner.Partition(items, target)
	elapsed := time.Since(start)
	h.recorder.ObservePartition(len(items), len(groups), elapsed)
	return groups, elapsed
}

func (h *Handler) respondGroups(w http.ResponseWriter, items []grouping.Item, target float64) {
	groups, elapsed := h.partition(items, target)

	payloads := make([]groupPayload, 0, len(groups))
	for _, group := range groups {
		payloads = append(payloads, groupPayload{Group: group, Details: group.Details()})
	}

	writeJSON(w, http.StatusOK, groupResponse{
		Target:            target,
		Groups:            payloads,
		Summary:           grouping.Summarize(target, groups),
		CalculationTimeMs: elapsed.Milliseconds(),
	})
}

type itemPayload struct {
	Label     string             `json:"label"`
	Weight    *float64           `json:"weight"`
	Auxiliary map[string]float64 `json:"auxiliary"`
}

type groupRequest struct {
	Target *float64      `json:"target"`
	Items  []itemPayload `json:"items"`
}

type groupPayload struct {
	grouping.Group
	Details string `json:"details"`
}

type groupResponse struct {
	Target            float64          `json:"target"`
	Groups            []groupPayload   `json:"groups"`
	Summary           grouping.Summary `json:"summary"`
	CalculationTimeMs int64            `json:"calculationTimeMs"`
}
