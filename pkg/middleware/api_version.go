package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/schemes"
)

// APIVersion describes a mounted API version. Sunset is an RFC 3339 date and
// stays empty while the version is supported.
type APIVersion struct {
	Version string
	Sunset  string
}

// CurrentAPIVersion is the version served under /api/v1
var CurrentAPIVersion = APIVersion{Version: "1.0.0"}

// APIVersionMiddleware stamps API and engine versions on every response so
// clients can tell which rule set produced a recommendation.
func APIVersionMiddleware(version APIVersion) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version.Version)
			h.Set("X-Engine-Version", dss.EngineVersion)
			if version.Sunset != "" {
				h.Set("Deprecation", "true")
				h.Set("Sunset", version.Sunset)
			}
			return next(c)
		}
	}
}

// VersionInfo is the body of GET /api/v1/version
func VersionInfo(version APIVersion) map[string]interface{} {
	info := map[string]interface{}{
		"version":        version.Version,
		"engine_version": dss.EngineVersion,
		"schemes":        len(schemes.All()),
	}
	if version.Sunset != "" {
		info["deprecated"] = true
		info["sunset"] = version.Sunset
	}
	return info
}
