package exports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// Handlers handles HTTP requests for exports
type Handlers struct {
	service    *Service
	maxPerList int
}

func NewHandlers(service *Service, maxPerList int) *Handlers {
	if maxPerList <= 0 {
		maxPerList = 50
	}
	return &Handlers{service: service, maxPerList: maxPerList}
}

// HandleCreate handles POST /v1/exports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	export, err := h.service.CreateExport(r.Context(), req.Format, r.Header.Get("Accept-Language"))
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	dto, err := h.toDTO(r, export)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// HandleList handles GET /v1/exports
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > h.maxPerList {
		limit = h.maxPerList
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	list, err := h.service.ListExports(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	dtos := make([]ExportDTO, 0, len(list))
	for i := range list {
		dto, err := h.toDTO(r, &list[i])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, ExportsResponse{Exports: dtos})
}

// HandleDownload handles GET /v1/exports/{id}/download
// Exports in object storage redirect to a presigned URL unless ?proxy=1.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	export, err := h.service.GetExport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if export.ObjectKey != nil && !h.service.localMode && r.URL.Query().Get("proxy") != "1" {
		url, err := h.service.DownloadURL(r.Context(), export, getBaseURL(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, contentType, err := h.service.ExportData(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("insulin_dose_%s.%s", export.CreatedAt.Format("20060102_150405"), export.Format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// HandleDelete handles DELETE /v1/exports/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExport(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) toDTO(r *http.Request, e *Export) (ExportDTO, error) {
	url, err := h.service.DownloadURL(r.Context(), e, getBaseURL(r))
	if err != nil {
		return ExportDTO{}, err
	}
	return ExportDTO{
		ID:          e.ID,
		Format:      e.Format,
		Language:    e.Language,
		DownloadURL: url,
		SizeBytes:   e.SizeBytes,
		CreatedAt:   e.CreatedAt,
	}, nil
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid export ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrExportNotFound) {
		writeError(w, http.StatusNotFound, "export_not_found", "Export not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
