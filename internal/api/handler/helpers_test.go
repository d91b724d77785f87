package handler

import (
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/api/middleware"
	"github.com/mietgram/campus-api/internal/core/domain"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds a context for method/path with an optional JSON body.
func newJSONContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticate injects the identity the way middleware.Auth does.
func authenticate(c echo.Context, u *domain.User) {
	c.Set(middleware.UserIDKey, u.ID)
	c.Set(middleware.UserKey, u)
}

var (
	rahul = &domain.User{ID: "u-rahul", Username: "rahul_cse", Email: "rahul@mietjammu.in", Role: domain.RoleStudent}
	admin = &domain.User{ID: "u-admin", Username: "admin_miet", Email: "admin@mietjammu.in", Role: domain.RoleAdmin}
)
