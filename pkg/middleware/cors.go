package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// corsMaxAge caches preflight answers in the portal for ten minutes
const corsMaxAge = 600

// CORSConfig allows the atlas portal origins to call the API. The export
// filename travels in Content-Disposition, so that header is exposed.
func CORSConfig(origins []string) middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-Engine-Version"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
}
