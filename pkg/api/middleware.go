package api

import (
	echo "github.com/labstack/echo/v5"
)

// securityHeaders sets standard response headers; cleo has no browser
// dashboard of its own, but these are cheap and the agent's uploads and
// any future web client still benefit.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}
