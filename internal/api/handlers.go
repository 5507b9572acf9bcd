package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/forms"
	"deployment-portal/backend/internal/repository"
	"deployment-portal/backend/internal/services"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Status        int      `json:"status"`
	Detail        string   `json:"detail"`
	Instance      string   `json:"instance,omitempty"`
	InvalidFields []string `json:"invalid_fields,omitempty"`
}

// Problem maps an error returned by a handler or middleware to a problem
// document.
func Problem(err error) ProblemDetails {
	p := ProblemDetails{Type: "about:blank"}

	var denied *auth.DeniedError
	var invalid *forms.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &denied):
		p.Status, p.Title, p.Detail = http.StatusForbidden, access.RestrictedTitle, denied.Message
	case errors.As(err, &invalid):
		p.Status, p.Detail, p.InvalidFields = http.StatusUnprocessableEntity, invalid.Error(), invalid.Fields
	case errors.Is(err, repository.ErrNotFound):
		p.Status, p.Detail = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrSubmissionInFlight):
		p.Status, p.Detail = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		p.Status, p.Detail = http.StatusBadRequest, err.Error()
	case errors.As(err, &he):
		p.Status = he.Code
		if he.Message != nil {
			p.Detail = fmt.Sprint(he.Message)
		}
	default:
		p.Status, p.Detail = http.StatusInternalServerError, "internal error"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	return p
}

// HTMLErrorRenderer renders a problem as a page for browser requests.
type HTMLErrorRenderer interface {
	RenderError(c echo.Context, p ProblemDetails) error
}

// NewHTTPErrorHandler writes every error as RFC 7807 JSON, or through pages
// when the request is not for the API and pages is non-nil.
func NewHTTPErrorHandler(logger Logger, pages HTMLErrorRenderer) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		p := Problem(err)
		p.Instance = c.Request().URL.Path
		if p.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", p.Instance, "error", err)
		} else {
			logger.Debug("request rejected", "path", p.Instance, "status", p.Status, "error", err)
		}

		if pages != nil && !auth.IsAPI(c) {
			rerr := pages.RenderError(c, p)
			if rerr == nil {
				return
			}
			logger.Error("failed to render error page", "error", rerr)
		}
		if err := writeError(c, p); err != nil {
			logger.Error("failed to write problem", "error", err)
		}
	}
}

// writeError writes an RFC 7807 Problem Details JSON error response
func writeError(c echo.Context, p ProblemDetails) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(p.Status)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	c.Response().WriteHeader(p.Status)
	return json.NewEncoder(c.Response()).Encode(p)
}
