package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// RequireRole aborts with 403 unless the authenticated role is one of
// roles.  It relies on JWTAuth having run first.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// AdminOrReadOnly lets any authenticated user through on safe methods and
// requires the ADMIN role for everything else.
func AdminOrReadOnly() echo.MiddlewareFunc {
	admin := RequireRole(model.RoleAdmin)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := admin(next)
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			return guarded(c)
		}
	}
}
