// Package api contains the HTTP handlers for the portal's JSON API
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the API server.
type Server struct {
	Portal  services.Portal
	Repo    Pinger
	Version string
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a new Server.
func NewServer(portal services.Portal, repo Pinger, version string) *Server {
	return &Server{Portal: portal, Repo: repo, Version: version}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// GetHealth reports whether the record store is reachable
// (GET /api/v1/health)
func (s *Server) GetHealth(c echo.Context) error {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   "deployment-portal",
		Version:   s.Version,
	}
	code := http.StatusOK
	if err := s.Repo.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// Me is the signed-in user with the pages their role may open.
type Me struct {
	models.User
	RoleLabel    string               `json:"role_label"`
	Initials     string               `json:"initials"`
	Pages        map[access.Page]bool `json:"pages"`
	QuickActions []models.QuickAction `json:"quick_actions"`
}

// GetMe returns the current user
// (GET /api/v1/me)
func (s *Server) GetMe(c echo.Context) error {
	st := mustSession(c)
	user := st.User()
	me := Me{
		User:         user,
		RoleLabel:    user.Role.Label(),
		Initials:     user.Initials(),
		Pages:        make(map[access.Page]bool),
		QuickActions: user.Role.QuickActions(),
	}
	for _, g := range access.Gates {
		me.Pages[g.Page] = g.Allows(user.Role)
	}
	return c.JSON(http.StatusOK, me)
}

// ListWorkflows returns a list of all workflows
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.Portal.Workflows(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow returns one workflow with its timeline
// (GET /api/v1/workflows/{id})
func (s *Server) GetWorkflow(c echo.Context, id string) error {
	workflow, err := s.Portal.Workflow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, workflow)
}

// ListPipeline returns the dashboard pipeline projects
// (GET /api/v1/pipeline)
func (s *Server) ListPipeline(c echo.Context) error {
	projects, err := s.Portal.Pipeline(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// mustSession returns the session placed by the auth middleware.
func mustSession(c echo.Context) *session.State {
	st, ok := session.FromContext(c.Request().Context())
	if !ok {
		panic("api: handler mounted without auth middleware")
	}
	return st
}
