package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/api/errors"
	custommw "github.com/fraatlas/backend/pkg/api/middleware"
	"github.com/fraatlas/backend/pkg/audit"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/export"
	"github.com/fraatlas/backend/pkg/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves recommendation reports
type ExportHandler struct {
	service   *export.Service
	audit     domain.AuditLogger
	validator *validator.Validate
}

// NewExportHandler creates a new export handler. auditLogger may be nil.
func NewExportHandler(service *export.Service, auditLogger domain.AuditLogger) *ExportHandler {
	return &ExportHandler{
		service:   service,
		audit:     auditLogger,
		validator: validator.New(),
	}
}

// Export godoc
// @Summary Export recommendations as a spreadsheet
// @Description Latest recommendation sets of pending claims in scope as an .xlsx workbook
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param district query string false "District"
// @Param state query string false "State"
// @Param limit query int false "Maximum claims (default 100)"
// @Router /admin/recommendations/export [get]
func (h *ExportHandler) Export(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	var req models.ExportRequest
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	report, err := h.service.Build(ctx, models.ClaimFilter{
		District: req.District,
		State:    req.State,
		Limit:    req.Limit,
	})
	if err != nil {
		return errors.FromDomain(c, err)
	}

	if h.audit != nil {
		metadata := audit.RequestMetadata(c)
		metadata["district"] = req.District
		metadata["state"] = req.State
		metadata["claims"] = report.Claims
		if err := h.audit.Log(ctx, models.AuditEntry{
			UserID:   principal.UserID,
			Action:   models.ActionExportRecommendations,
			Metadata: metadata,
		}); err != nil {
			c.Logger().Warnf("failed to audit export: %v", err)
		}
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, xlsxContentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.FileName(report)))
	res.WriteHeader(http.StatusOK)

	return h.service.WriteExcel(res, report)
}
