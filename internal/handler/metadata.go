package handler

import (
	"log/slog"
	"net/http"

	"dataexplorer/internal/httputil"
	"dataexplorer/internal/metadata"
)

// MetadataHandler serves warehouse table metadata.
type MetadataHandler struct {
	service *metadata.Service
	logger  *slog.Logger
}

// NewMetadataHandler creates a MetadataHandler.
func NewMetadataHandler(service *metadata.Service, logger *slog.Logger) *MetadataHandler {
	return &MetadataHandler{service: service, logger: logger}
}

// HandleMetadata returns schema and sample rows for every table of a data
// source.
// GET /api/metadata/v1?dataSource=
func (h *MetadataHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	dataSource := r.URL.Query().Get("dataSource")
	if dataSource == "" {
		httputil.RespondError(w, http.StatusBadRequest, "dataSource is required")
		return
	}

	infos, err := h.service.Describe(r.Context(), dataSource)
	if err != nil {
		h.logger.Error("metadata fetch failed",
			slog.String("data_source", dataSource),
			slog.String("error", err.Error()))
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, infos)
}
