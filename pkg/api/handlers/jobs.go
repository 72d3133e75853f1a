package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/api/errors"
	custommw "github.com/fraatlas/backend/pkg/api/middleware"
	"github.com/fraatlas/backend/pkg/jobs"
	"github.com/fraatlas/backend/pkg/models"
)

// JobsHandler handles scheduled regeneration endpoints
type JobsHandler struct {
	manager *jobs.CronManager
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(manager *jobs.CronManager) *JobsHandler {
	return &JobsHandler{manager: manager}
}

type backlogEntry struct {
	State    string `json:"state"`
	District string `json:"district"`
	Pending  int    `json:"pending"`
	Covered  int    `json:"covered"`
	Missing  int    `json:"missing"`
}

// Backlog godoc
// @Summary Localities with pending claims lacking recommendations
// @Description Largest backlog first. District admins only see their own district.
// @Tags Admin Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Backlog localities with count"
// @Router /admin/jobs/backlog [get]
func (h *JobsHandler) Backlog(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	backlog, err := h.manager.Monitor().DetectBacklog(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	entries := []backlogEntry{}
	for _, b := range backlog {
		if !principal.CanAccessDistrict(b.District) {
			continue
		}
		entries = append(entries, backlogEntry{
			State:    b.State,
			District: b.District,
			Pending:  b.Pending,
			Covered:  b.Covered,
			Missing:  b.Missing(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":      len(entries),
		"localities": entries,
	})
}

// Stats godoc
// @Summary Recommendation coverage across every locality
// @Tags Admin Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Coverage totals"
// @Router /admin/jobs/stats [get]
func (h *JobsHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	stats, err := h.manager.Monitor().Stats(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// TriggerBulk godoc
// @Summary Run the scheduled regeneration now
// @Description Runs the nightly bulk job under its run lock. Fails with 409 while another run holds the lock. The run continues if the client disconnects; a run cut short by its timeout reports partial counts with interrupted set.
// @Tags Admin Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.BulkRecommendationResponse
// @Failure 409 {object} models.ErrorResponse "Run already in progress"
// @Router /admin/jobs/trigger-bulk [post]
func (h *JobsHandler) TriggerBulk(c echo.Context) error {
	resp, err := h.manager.RunBulk(context.WithoutCancel(c.Request().Context()))
	if stderrors.Is(err, jobs.ErrRunInProgress) {
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: "A bulk regeneration run is already in progress.",
		})
	}
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
