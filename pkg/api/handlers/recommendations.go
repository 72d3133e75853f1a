package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/api/errors"
	custommw "github.com/fraatlas/backend/pkg/api/middleware"
	"github.com/fraatlas/backend/pkg/auth"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/recommendations"
)

// RecommendationHandler handles recommendation generation and retrieval
type RecommendationHandler struct {
	service   *recommendations.Service
	validator *validator.Validate
	timeout   time.Duration
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service *recommendations.Service) *RecommendationHandler {
	return &RecommendationHandler{
		service:   service,
		validator: validator.New(),
		timeout:   30 * time.Second,
	}
}

// WithBulkTimeout sets how long a bulk request may run
func (h *RecommendationHandler) WithBulkTimeout(d time.Duration) *RecommendationHandler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// claimID reads the claim id from the path, falling back to the JSON body
// or query string
func (h *RecommendationHandler) claimID(c echo.Context) (string, error) {
	req := models.GenerateRecommendationsRequest{ClaimID: c.Param("id")}
	if req.ClaimID == "" {
		req.ClaimID = c.QueryParam("claim_id")
	}
	if req.ClaimID == "" && c.Request().Method == http.MethodPost {
		if err := c.Bind(&req); err != nil {
			return "", err
		}
	}
	req.ClaimID = strings.TrimSpace(req.ClaimID)

	if err := h.validator.Struct(req); err != nil {
		return "", err
	}
	return req.ClaimID, nil
}

// Generate godoc
// @Summary Generate recommendations for a claim
// @Description Scores every scheme against the claim and its village asset map, saves the set and returns it
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} dss.Result
// @Failure 400 {object} models.ErrorResponse "Invalid claim id"
// @Failure 403 {object} models.ErrorResponse "No access to the claim"
// @Failure 404 {object} models.ErrorResponse "Claim not found"
// @Router /claims/{id}/recommendations [post]
func (h *RecommendationHandler) Generate(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	claimID, err := h.claimID(c)
	if err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.service.Generate(ctx, claimID, principal)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetLatest godoc
// @Summary Get the latest recommendations for a claim
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Claim ID"
// @Success 200 {object} dss.Result
// @Failure 404 {object} models.ErrorResponse "No recommendations found"
// @Router /claims/{id}/recommendations [get]
func (h *RecommendationHandler) GetLatest(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	claimID, err := h.claimID(c)
	if err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	result, err := h.service.GetLatest(ctx, claimID, principal)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Bulk godoc
// @Summary Regenerate recommendations for pending claims
// @Description Processes pending claims one at a time. District admins are limited to their own district.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BulkRecommendationRequest false "Locality filters and limit"
// @Success 200 {object} models.BulkRecommendationResponse
// @Router /admin/recommendations/bulk [post]
func (h *RecommendationHandler) Bulk(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	var req models.BulkRecommendationRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}
	req.District = strings.TrimSpace(req.District)
	req.State = strings.TrimSpace(req.State)
	if !scopeToPrincipal(principal, &req.District) {
		return errors.ForbiddenError(c)
	}

	// a dropped connection must not abandon a district halfway
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), h.timeout)
	defer cancel()

	resp, err := h.service.GenerateBulk(ctx, req, principal.UserID)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// scopeToPrincipal pins the request to a district the caller may act on.
// It reports false when the caller has no district at all.
func scopeToPrincipal(p *auth.Principal, district *string) bool {
	allowed := p.AccessibleDistricts()
	if allowed == nil {
		return true
	}
	if len(allowed) == 0 {
		return false
	}
	if !slices.Contains(allowed, *district) {
		*district = allowed[0]
	}
	return true
}
