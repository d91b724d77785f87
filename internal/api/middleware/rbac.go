package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// RBAC enforces role-based access control on the identity loaded by Auth.
func RBAC(allowedRoles ...domain.CampusRole) echo.MiddlewareFunc {
	allowed := make(map[domain.CampusRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(UserKey).(*domain.User)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
			}
			if _, ok := allowed[user.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "not authorized as an admin")
			}
			return next(c)
		}
	}
}
