package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/estate-pipeline/internal/entity"
)

// BatchRunner is one synchronous pipeline stage.
type BatchRunner interface {
	Run(ctx context.Context) (entity.BatchStats, error)
}

// RunsHandler triggers pipeline stages on demand. Runs execute synchronously
// and return their batch stats; the caller's context bounds the run.
type RunsHandler struct {
	dedupe    BatchRunner
	addresses BatchRunner
	geocode   BatchRunner
}

// NewRunsHandler creates a new handler instance.
func NewRunsHandler(dedupe, addresses, geocode BatchRunner) *RunsHandler {
	return &RunsHandler{dedupe: dedupe, addresses: addresses, geocode: geocode}
}

// Dedupe handles POST /runs/dedupe requests.
func (h *RunsHandler) Dedupe(c echo.Context) error {
	return h.run(c, h.dedupe, "deduplication finished")
}

// Addresses handles POST /runs/addresses requests.
func (h *RunsHandler) Addresses(c echo.Context) error {
	return h.run(c, h.addresses, "address decomposition finished")
}

// Geocode handles POST /runs/geocode requests.
func (h *RunsHandler) Geocode(c echo.Context) error {
	return h.run(c, h.geocode, "geocoding finished")
}

func (h *RunsHandler) run(c echo.Context, runner BatchRunner, message string) error {
	stats, err := runner.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Error(c, http.StatusRequestTimeout, "run interrupted")
		}
		return Error(c, http.StatusInternalServerError, "run failed")
	}
	return Success(c, http.StatusOK, message, stats)
}
