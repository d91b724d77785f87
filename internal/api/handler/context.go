package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/api/middleware"
	"github.com/mietgram/campus-api/internal/core/domain"
)

// currentUserID returns the identity id injected by the Auth middleware.
// An empty id means the route was mounted without Auth.
func currentUserID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.UserIDKey).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

func currentUser(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(middleware.UserKey).(*domain.User)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return u, nil
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	return c.Validate(req)
}
