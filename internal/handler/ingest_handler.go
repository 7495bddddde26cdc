package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/service"
)

// IngestHandler accepts scraped listing batches.
type IngestHandler struct {
	service *service.IngestService
}

// NewIngestHandler creates a new handler instance.
func NewIngestHandler(service *service.IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// Ingest handles POST /ingest requests.
func (h *IngestHandler) Ingest(c echo.Context) error {
	var req dto.IngestRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	summary, err := h.service.IngestBatch(c.Request().Context(), req)
	if err != nil {
		var valErr service.ValidationError
		if errors.As(err, &valErr) {
			return Error(c, http.StatusBadRequest, valErr.Message)
		}
		return Error(c, http.StatusInternalServerError, "failed to ingest listings")
	}

	return Success(c, http.StatusOK, "listings ingested", summary)
}
