package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// sentinels are the domain errors whose message is safe to show to clients.
var sentinels = []error{
	domain.ErrDuplicateIdentity,
	domain.ErrInvalidCredentials,
	domain.ErrAccountBanned,
	domain.ErrIdentityNotFound,
	domain.ErrPostNotFound,
	domain.ErrUnauthorized,
	domain.ErrForbidden,
	domain.ErrStoreUnavailable,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to HTTP status codes through domain.Kind.
//   - Logs unexpected and infrastructure errors without leaking details.
//   - Renders a consistent JSON envelope: {"error": "<message>", "kind": "<Kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Kind: kindForStatus(he.Code)}
	}

	kind := domain.Kind(err)
	code := statusForKind(kind)

	if code >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("kind", kind).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
	}

	switch {
	case kind == "":
		return code, errorResponse{Error: "internal server error"}
	case errors.Is(err, domain.ErrValidation):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return code, errorResponse{Error: ve.Error(), Kind: kind}
		}
		return code, errorResponse{Error: domain.ErrValidation.Error(), Kind: kind}
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return code, errorResponse{Error: s.Error(), Kind: kind}
		}
	}
	return code, errorResponse{Error: err.Error(), Kind: kind}
}

func statusForKind(kind string) int {
	switch kind {
	case "DuplicateIdentity", "ValidationError":
		return http.StatusBadRequest
	case "InvalidCredentials", "Unauthorized":
		return http.StatusUnauthorized
	case "AccountBanned", "Forbidden":
		return http.StatusForbidden
	case "PostNotFound", "IdentityNotFound":
		return http.StatusNotFound
	case "StoreUnavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// kindForStatus labels errors raised directly as echo.HTTPError.
func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "ValidationError"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	default:
		return ""
	}
}
