package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/filter"
	"deployment-portal/backend/pkg/models"
)

// RegistryParams defines parameters for the CAB, security and upload listings.
type RegistryParams struct {
	Search   *string `form:"search,omitempty" json:"search,omitempty"`
	Status   *string `form:"status,omitempty" json:"status,omitempty"`
	Priority *string `form:"priority,omitempty" json:"priority,omitempty"`
}

// Query converts the parameters into a filter query.
func (p RegistryParams) Query() filter.Query {
	return filter.NewQuery(deref(p.Search),
		models.FacetStatus, deref(p.Status),
		models.FacetPriority, deref(p.Priority),
	)
}

// ListNotificationsParams defines parameters for ListNotifications.
type ListNotificationsParams struct {
	Search   *string `form:"search,omitempty" json:"search,omitempty"`
	Type     *string `form:"type,omitempty" json:"type,omitempty"`
	Status   *string `form:"status,omitempty" json:"status,omitempty"`
	Category *string `form:"category,omitempty" json:"category,omitempty"`
	Priority *string `form:"priority,omitempty" json:"priority,omitempty"`
}

// Query converts the parameters into a filter query.
func (p ListNotificationsParams) Query() filter.Query {
	return filter.NewQuery(deref(p.Search),
		models.FacetType, deref(p.Type),
		models.FacetStatus, deref(p.Status),
		models.FacetCategory, deref(p.Category),
		models.FacetPriority, deref(p.Priority),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(ctx echo.Context) error
	// (GET /me)
	GetMe(ctx echo.Context) error
	// (GET /workflows)
	ListWorkflows(ctx echo.Context) error
	// (GET /workflows/{id})
	GetWorkflow(ctx echo.Context, id string) error
	// (GET /pipeline)
	ListPipeline(ctx echo.Context) error
	// (GET /cab-requests)
	ListCABRequests(ctx echo.Context, params RegistryParams) error
	// (GET /cab-requests/{id})
	GetCABRequest(ctx echo.Context, id string) error
	// (POST /cab-requests/{id}/decision)
	SubmitDecision(ctx echo.Context, id string) error
	// (GET /security-tickets)
	ListSecurityTickets(ctx echo.Context, params RegistryParams) error
	// (GET /uploads)
	ListUploads(ctx echo.Context, params RegistryParams) error
	// (POST /uploads)
	SubmitUpload(ctx echo.Context) error
	// (POST /uploads/files)
	AddUploadFile(ctx echo.Context) error
	// (DELETE /uploads/files/{id})
	RemoveUploadFile(ctx echo.Context, id string) error
	// (GET /notifications)
	ListNotifications(ctx echo.Context, params ListNotificationsParams) error
	// (GET /alerts)
	ListAlerts(ctx echo.Context) error
	// (POST /alerts/{id}/dismiss)
	DismissAlert(ctx echo.Context, id string) error
	// (GET /banners/{page})
	GetBanner(ctx echo.Context, page string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPath(ctx echo.Context, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func bindQuery(ctx echo.Context, name string, dest **string) error {
	if err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func bindRegistryParams(ctx echo.Context) (RegistryParams, error) {
	var params RegistryParams
	for name, dest := range map[string]**string{
		"search":   &params.Search,
		"status":   &params.Status,
		"priority": &params.Priority,
	} {
		if err := bindQuery(ctx, name, dest); err != nil {
			return params, err
		}
	}
	return params, nil
}

func (w *ServerInterfaceWrapper) GetHealth(ctx echo.Context) error {
	return w.Handler.GetHealth(ctx)
}

func (w *ServerInterfaceWrapper) GetMe(ctx echo.Context) error {
	return w.Handler.GetMe(ctx)
}

func (w *ServerInterfaceWrapper) ListWorkflows(ctx echo.Context) error {
	return w.Handler.ListWorkflows(ctx)
}

func (w *ServerInterfaceWrapper) GetWorkflow(ctx echo.Context) error {
	var id string
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	return w.Handler.GetWorkflow(ctx, id)
}

func (w *ServerInterfaceWrapper) ListPipeline(ctx echo.Context) error {
	return w.Handler.ListPipeline(ctx)
}

func (w *ServerInterfaceWrapper) ListCABRequests(ctx echo.Context) error {
	params, err := bindRegistryParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListCABRequests(ctx, params)
}

func (w *ServerInterfaceWrapper) GetCABRequest(ctx echo.Context) error {
	var id string
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	return w.Handler.GetCABRequest(ctx, id)
}

func (w *ServerInterfaceWrapper) SubmitDecision(ctx echo.Context) error {
	var id string
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	return w.Handler.SubmitDecision(ctx, id)
}

func (w *ServerInterfaceWrapper) ListSecurityTickets(ctx echo.Context) error {
	params, err := bindRegistryParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListSecurityTickets(ctx, params)
}

func (w *ServerInterfaceWrapper) ListUploads(ctx echo.Context) error {
	params, err := bindRegistryParams(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListUploads(ctx, params)
}

func (w *ServerInterfaceWrapper) SubmitUpload(ctx echo.Context) error {
	return w.Handler.SubmitUpload(ctx)
}

func (w *ServerInterfaceWrapper) AddUploadFile(ctx echo.Context) error {
	return w.Handler.AddUploadFile(ctx)
}

func (w *ServerInterfaceWrapper) RemoveUploadFile(ctx echo.Context) error {
	var id string
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	return w.Handler.RemoveUploadFile(ctx, id)
}

func (w *ServerInterfaceWrapper) ListNotifications(ctx echo.Context) error {
	var params ListNotificationsParams
	for name, dest := range map[string]**string{
		"search":   &params.Search,
		"type":     &params.Type,
		"status":   &params.Status,
		"category": &params.Category,
		"priority": &params.Priority,
	} {
		if err := bindQuery(ctx, name, dest); err != nil {
			return err
		}
	}
	return w.Handler.ListNotifications(ctx, params)
}

func (w *ServerInterfaceWrapper) ListAlerts(ctx echo.Context) error {
	return w.Handler.ListAlerts(ctx)
}

func (w *ServerInterfaceWrapper) DismissAlert(ctx echo.Context) error {
	var id string
	if err := bindPath(ctx, "id", &id); err != nil {
		return err
	}
	return w.Handler.DismissAlert(ctx, id)
}

func (w *ServerInterfaceWrapper) GetBanner(ctx echo.Context) error {
	var page string
	if err := bindPath(ctx, "page", &page); err != nil {
		return err
	}
	return w.Handler.GetBanner(ctx, page)
}

// EchoRouter is the subset of echo.Echo and echo.Group used for routing.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the router. Everything except
// /health runs behind requireAuth; role-restricted routes also pass their
// access gate.
func RegisterHandlers(router EchoRouter, si ServerInterface, requireAuth echo.MiddlewareFunc) {
	w := &ServerInterfaceWrapper{Handler: si}
	gated := func(g access.Gate) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{requireAuth, auth.RequireRole(g)}
	}

	router.GET("/health", w.GetHealth)
	router.GET("/me", w.GetMe, requireAuth)
	router.GET("/workflows", w.ListWorkflows, requireAuth)
	router.GET("/workflows/:id", w.GetWorkflow, requireAuth)
	router.GET("/pipeline", w.ListPipeline, requireAuth)
	router.GET("/cab-requests", w.ListCABRequests, gated(access.CAB)...)
	router.GET("/cab-requests/:id", w.GetCABRequest, gated(access.CAB)...)
	router.POST("/cab-requests/:id/decision", w.SubmitDecision, gated(access.CAB)...)
	router.GET("/security-tickets", w.ListSecurityTickets, gated(access.Security)...)
	router.GET("/uploads", w.ListUploads, gated(access.Upload)...)
	router.POST("/uploads", w.SubmitUpload, gated(access.Upload)...)
	router.POST("/uploads/files", w.AddUploadFile, gated(access.Upload)...)
	router.DELETE("/uploads/files/:id", w.RemoveUploadFile, gated(access.Upload)...)
	router.GET("/notifications", w.ListNotifications, gated(access.Notifications)...)
	router.GET("/alerts", w.ListAlerts, requireAuth)
	router.POST("/alerts/:id/dismiss", w.DismissAlert, requireAuth)
	router.GET("/banners/:page", w.GetBanner, requireAuth)
}
