package audit

import (
	"github.com/labstack/echo/v4"
)

// GetIPAddress extracts the real IP address from request
func GetIPAddress(c echo.Context) string {
	// Check X-Forwarded-For header (common in proxies/load balancers)
	if ip := c.Request().Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}

	if ip := c.Request().Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	return c.RealIP()
}

// RequestMetadata returns the request attributes recorded with each entry
func RequestMetadata(c echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"ip_address": GetIPAddress(c),
		"user_agent": c.Request().UserAgent(),
	}
}
