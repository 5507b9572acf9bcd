package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/config"
	"deployment-portal/backend/internal/metrics"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

// CookieName is the session cookie.
const CookieName = "dmp_session"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// ErrInvalidCredentials is returned by SignIn for a malformed email or an
// unknown role. Nothing else is checked.
var ErrInvalidCredentials = errors.New("a valid email and role are required")

// Auth signs users in and guards routes. Identity is self-declared: any
// email and any known role are accepted.
type Auth struct {
	store        *session.Store
	logger       Logger
	devMode      bool
	authBypass   bool
	secureCookie bool
	devState     *session.State
}

// New creates an Auth. In DEV with dev_mode_bypass set, every request runs
// as the configured dev user.
func New(cfg *config.Config, store *session.Store, logger Logger) (*Auth, error) {
	a := &Auth{
		store:        store,
		logger:       logger,
		devMode:      cfg.IsDev(),
		authBypass:   cfg.BypassAuth(),
		secureCookie: cfg.TLS.Enable,
	}
	if a.authBypass {
		role := models.ParseRole(cfg.Dev.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("dev.role %q is not a known role", cfg.Dev.Role)
		}
		a.devState = store.Create(models.NewUser(cfg.Dev.Email, role))
		logger.Info("auth bypass enabled", "email", cfg.Dev.Email, "role", role)
	}
	return a, nil
}

// Bypass reports whether sign-in is skipped.
func (a *Auth) Bypass() bool {
	return a.authBypass
}

// SignIn starts a session for email and role and sets the session cookie.
func (a *Auth) SignIn(c echo.Context, email, role string) (*session.State, error) {
	r := models.ParseRole(role)
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || !r.Valid() {
		return nil, ErrInvalidCredentials
	}

	st := a.store.Create(models.NewUser(addr.Address, r))
	metrics.SetSessions(a.store.Len())
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    st.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	a.logger.Info("signed in", "email", addr.Address, "role", r)
	return st, nil
}

// SignOut ends the current session, if any, and clears the cookie.
func (a *Auth) SignOut(c echo.Context) {
	if cookie, err := c.Cookie(CookieName); err == nil {
		if err := a.store.Delete(cookie.Value); err == nil {
			a.logger.Debug("signed out", "session", cookie.Value)
		}
	}
	metrics.SetSessions(a.store.Len())
	c.SetCookie(&http.Cookie{
		Name:   CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// Current returns the request's session without enforcing one.
func (a *Auth) Current(c echo.Context) (*session.State, bool) {
	if st, ok := session.FromContext(c.Request().Context()); ok {
		return st, true
	}
	if a.authBypass {
		return a.devState, true
	}
	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	st, err := a.store.Get(cookie.Value)
	if err != nil {
		return nil, false
	}
	return st, true
}

// RequireAuth is middleware that ensures a session is present. Pages
// redirect to /login; API requests get 401.
func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, ok := a.Current(c)
		if !ok {
			if IsAPI(c) {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		req := c.Request()
		c.SetRequest(req.WithContext(session.NewContext(req.Context(), st)))
		return next(c)
	}
}

// DeniedError is returned when a gate turns a user away.
type DeniedError struct {
	Page access.Page
	Role models.Role
	access.Decision
}

func (e *DeniedError) Error() string {
	return e.Message
}

// RequireRole is middleware that admits only the roles of gate. It must run
// after RequireAuth.
func RequireRole(gate access.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st, ok := session.FromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			role := st.User().Role
			if d := gate.Check(role); !d.Allowed {
				metrics.GateDenied(string(gate.Page), string(role))
				return &DeniedError{Page: gate.Page, Role: role, Decision: d}
			}
			return next(c)
		}
	}
}

// IsAPI reports whether the request targets the JSON API.
func IsAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
