package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

// IdentityLookup loads the identity a token refers to.
type IdentityLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer token, reloads the identity and injects it into
// the context. Unknown or banned identities are rejected like a bad token.
func Auth(tokens ports.TokenIssuer, users IdentityLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if err != nil {
				return err
			}

			userID, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token failed")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			switch {
			case errors.Is(err, domain.ErrIdentityNotFound):
				return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, user not found")
			case err != nil:
				return err
			case user.Banned:
				return echo.NewHTTPError(http.StatusUnauthorized, "account banned")
			}

			c.Set(UserIDKey, user.ID)
			c.Set(UserKey, user)

			return next(c)
		}
	}
}

// bearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so a "token" query parameter is
// accepted as well.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("token"); t != "" && isUpgrade(r) {
			return t, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
