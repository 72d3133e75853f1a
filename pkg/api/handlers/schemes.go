package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/api/errors"
	"github.com/fraatlas/backend/pkg/schemes"
)

// SchemeHandler serves the welfare scheme catalog
type SchemeHandler struct{}

// NewSchemeHandler creates a new scheme handler
func NewSchemeHandler() *SchemeHandler {
	return &SchemeHandler{}
}

// List godoc
// @Summary List welfare schemes
// @Description Returns the scheme catalog, optionally restricted to one category
// @Tags Schemes
// @Produce json
// @Param category query string false "agriculture, forest, livelihood, infrastructure or social"
// @Success 200 {object} map[string]interface{} "Schemes with total count"
// @Failure 400 {object} models.ErrorResponse "Unknown category"
// @Router /schemes [get]
func (h *SchemeHandler) List(c echo.Context) error {
	list := schemes.All()

	if raw := c.QueryParam("category"); raw != "" {
		category := schemes.Category(raw)
		if !category.Valid() {
			return errors.BadRequestError(c, "Unknown scheme category")
		}
		list = schemes.ByCategory(category)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"schemes": list,
		"total":   len(list),
	})
}

// Get godoc
// @Summary Get scheme by ID
// @Tags Schemes
// @Produce json
// @Param id path string true "Scheme ID (e.g., pm-kisan)"
// @Success 200 {object} schemes.Scheme
// @Failure 404 {object} models.ErrorResponse "Scheme not found"
// @Router /schemes/{id} [get]
func (h *SchemeHandler) Get(c echo.Context) error {
	scheme, ok := schemes.GetByID(c.Param("id"))
	if !ok {
		return errors.NotFoundError(c, "scheme")
	}
	return c.JSON(http.StatusOK, scheme)
}
