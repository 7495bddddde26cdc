package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/service"
)

// ListingsHandler exposes the listing catalogue endpoints.
type ListingsHandler struct {
	service *service.CatalogService
}

// NewListingsHandler creates a new handler instance.
func NewListingsHandler(service *service.CatalogService) *ListingsHandler {
	return &ListingsHandler{service: service}
}

// List handles GET /listings requests.
func (h *ListingsHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:          strings.TrimSpace(c.QueryParam("q")),
		Source:     strings.TrimSpace(c.QueryParam("source")),
		Duplicates: strings.TrimSpace(c.QueryParam("duplicates")),
		Sort:       strings.TrimSpace(c.QueryParam("sort")),
		Page:       parseIntDefault(c.QueryParam("page"), 1),
		PerPage:    parseIntDefault(c.QueryParam("per_page"), 20),
	}

	switch filter.Duplicates {
	case "", "only", "exclude":
	default:
		return Error(c, http.StatusBadRequest, "invalid duplicates filter (use only or exclude)")
	}

	if minPriceStr := strings.TrimSpace(c.QueryParam("min_price")); minPriceStr != "" {
		minPrice, err := strconv.ParseFloat(minPriceStr, 64)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid min_price")
		}
		filter.MinPrice = &minPrice
	}
	if maxPriceStr := strings.TrimSpace(c.QueryParam("max_price")); maxPriceStr != "" {
		maxPrice, err := strconv.ParseFloat(maxPriceStr, 64)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid max_price")
		}
		filter.MaxPrice = &maxPrice
	}

	listings, err := h.service.ListListings(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list listings")
	}

	return Success(c, http.StatusOK, "listings retrieved", listings)
}

// ListAddresses handles GET /addresses requests.
func (h *ListingsHandler) ListAddresses(c echo.Context) error {
	filter := dto.AddressFilter{
		City:          strings.TrimSpace(c.QueryParam("city")),
		MissingCoords: parseBool(c.QueryParam("missing_coordinates")),
		Page:          parseIntDefault(c.QueryParam("page"), 1),
		PerPage:       parseIntDefault(c.QueryParam("per_page"), 20),
	}

	addresses, err := h.service.ListAddresses(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list addresses")
	}

	return Success(c, http.StatusOK, "addresses retrieved", addresses)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}

func parseBool(input string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(input))
	return err == nil && value
}
