package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// Security returns a middleware setting the standard security headers.
// The API serves JSON only, so the CSP locks everything down.
func Security(cfg *viper.Viper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()

			res.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			res.Header().Set("X-Content-Type-Options", "nosniff")
			res.Header().Set("X-Frame-Options", "DENY")
			res.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https" {
				res.Header().Set("Strict-Transport-Security",
					"max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}
