package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/fraatlas/backend/pkg/api/errors"
	custommw "github.com/fraatlas/backend/pkg/api/middleware"
	"github.com/fraatlas/backend/pkg/models"
)

// LocalitySource lists the localities that have claims
type LocalitySource interface {
	Localities(ctx context.Context) ([]models.Locality, error)
}

// LocalityHandler serves district and state filter options
type LocalityHandler struct {
	source LocalitySource
}

// NewLocalityHandler creates a new locality handler
func NewLocalityHandler(source LocalitySource) *LocalityHandler {
	return &LocalityHandler{source: source}
}

// normalizeLocality canonicalizes a district or state name so that spelling
// variants of the same place merge
func normalizeLocality(name string) string {
	composed := norm.NFC.String(strings.TrimSpace(name))
	if composed == "" {
		return ""
	}
	collapsed := strings.Join(strings.Fields(composed), " ")
	return cases.Title(language.English).String(strings.ToLower(collapsed))
}

// List godoc
// @Summary List districts and states with claims
// @Description Normalized, deduplicated localities visible to the caller, with claim counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Localities, states and total count"
// @Router /admin/localities [get]
func (h *LocalityHandler) List(c echo.Context) error {
	principal := custommw.GetPrincipal(c)
	if principal == nil {
		return errors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	raw, err := h.source.Localities(ctx)
	if err != nil {
		return errors.FromDomain(c, err)
	}

	merged := make(map[string]*models.Locality)
	for _, l := range raw {
		if !principal.CanAccessDistrict(l.District) {
			continue
		}
		district := normalizeLocality(l.District)
		state := normalizeLocality(l.State)
		if district == "" {
			continue
		}

		key := strings.ToLower(state + "|" + district)
		if existing, ok := merged[key]; ok {
			existing.Claims += l.Claims
			continue
		}
		merged[key] = &models.Locality{District: district, State: state, Claims: l.Claims}
	}

	localities := make([]models.Locality, 0, len(merged))
	stateSet := make(map[string]bool)
	for _, l := range merged {
		localities = append(localities, *l)
		if l.State != "" {
			stateSet[l.State] = true
		}
	}
	sort.Slice(localities, func(i, j int) bool {
		if localities[i].State != localities[j].State {
			return localities[i].State < localities[j].State
		}
		return localities[i].District < localities[j].District
	})

	states := make([]string, 0, len(stateSet))
	for s := range stateSet {
		states = append(states, s)
	}
	sort.Strings(states)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"localities": localities,
		"states":     states,
		"total":      len(localities),
	})
}
