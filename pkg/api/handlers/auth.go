package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/api/errors"
	"github.com/fraatlas/backend/pkg/auth"
	"github.com/fraatlas/backend/pkg/models"
)

// defaultRevocation is used for tokens issued without an expiry
const defaultRevocation = 24 * time.Hour

// AuthHandler handles session endpoints for tokens issued by the portal
type AuthHandler struct {
	blacklist *auth.TokenBlacklist
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(blacklist *auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{blacklist: blacklist}
}

// Logout godoc
// @Summary Revoke the current access token
// @Description Adds the bearer token to the revocation list until it expires
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	// Get token from context (set by JWT middleware)
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return errors.UnauthorizedError(c)
	}

	expiration := defaultRevocation
	if expiresAt, ok := c.Get("token_expires_at").(time.Time); ok {
		expiration = time.Until(expiresAt)
	}

	if expiration > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := h.blacklist.Add(ctx, token, expiration); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "logout_error",
				Message: "Failed to revoke token",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}
