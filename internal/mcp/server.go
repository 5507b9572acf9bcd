// Package mcp exposes read-only portal lookups as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"deployment-portal/backend/internal/filter"
	"deployment-portal/backend/internal/repository"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/pkg/models"
)

// BasePath is where the SSE transport is mounted.
const BasePath = "/mcp"

type Server struct {
	mcpServer *server.MCPServer
	portal    services.Portal
}

func NewServer(portal services.Portal, version string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Deployment Management Portal",
			version,
			server.WithToolCapabilities(true),
		),
		portal: portal,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func searchOptions(facets ...string) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("search", mcp.Description("Case-insensitive text to look for")),
	}
	for _, f := range facets {
		opts = append(opts, mcp.WithString(f, mcp.Description(fmt.Sprintf("Only records with this %s; \"all\" or empty disables the filter", f))))
	}
	return opts
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List deployment workflows with their current stage and progress"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"workflow_status",
			mcp.WithDescription("Show the current stage and stage timeline of one workflow or pipeline project"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("id", mcp.Required(), mcp.Description("The workflow ID, e.g. wf-001")),
		),
		s.handleWorkflowStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("search_cab_requests", append([]mcp.ToolOption{
			mcp.WithDescription("Search Change Advisory Board requests"),
		}, searchOptions(models.FacetStatus, models.FacetPriority)...)...),
		s.handleSearchCABRequests,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("search_security_tickets", append([]mcp.ToolOption{
			mcp.WithDescription("Search security assessment tickets"),
		}, searchOptions(models.FacetStatus, models.FacetPriority)...)...),
		s.handleSearchSecurityTickets,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("search_notifications", append([]mcp.ToolOption{
			mcp.WithDescription("Search notifications sent by the portal"),
		}, searchOptions(models.FacetType, models.FacetStatus, models.FacetCategory, models.FacetPriority)...)...),
		s.handleSearchNotifications,
	)
}

// WorkflowSummary is one line of list_workflows.
type WorkflowSummary struct {
	ID              string               `json:"id"`
	ProjectName     string               `json:"project_name"`
	Version         string               `json:"version"`
	Status          models.WorkflowState `json:"status"`
	CurrentStage    string               `json:"current_stage"`
	Stage           int                  `json:"stage"`
	TotalStages     int                  `json:"total_stages"`
	ProgressPercent int                  `json:"progress_percent"`
}

func summarize(w services.WorkflowView) WorkflowSummary {
	sum := WorkflowSummary{
		ID:              w.ID,
		ProjectName:     w.ProjectName,
		Version:         w.Version,
		Status:          w.Status,
		Stage:           w.Summary.CurrentStage,
		TotalStages:     w.Summary.TotalStages,
		ProgressPercent: w.Summary.ProgressPercent,
	}
	for _, st := range w.Timeline {
		if st.Current {
			sum.CurrentStage = st.Name
		}
	}
	return sum
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows, err := s.portal.Workflows(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}
	out := make([]WorkflowSummary, len(workflows))
	for i, w := range workflows {
		out[i] = summarize(w)
	}
	return jsonResult(out)
}

func (s *Server) handleWorkflowStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	w, err := s.portal.Workflow(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("No workflow with id %q", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workflow: %v", err)), nil
	}
	return jsonResult(struct {
		WorkflowSummary
		Timeline any `json:"timeline"`
	}{summarize(*w), w.Timeline})
}

func queryArgs(request mcp.CallToolRequest, facets ...string) filter.Query {
	q := filter.NewQuery(request.GetString("search", ""))
	for _, f := range facets {
		q = q.With(f, request.GetString(f, ""))
	}
	return q
}

func (s *Server) handleSearchCABRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.portal.CABRequests(ctx, nil, queryArgs(request, models.FacetStatus, models.FacetPriority))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search CAB requests: %v", err)), nil
	}
	return jsonResult(list)
}

func (s *Server) handleSearchSecurityTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.portal.SecurityTickets(ctx, queryArgs(request, models.FacetStatus, models.FacetPriority))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search security tickets: %v", err)), nil
	}
	return jsonResult(list)
}

func (s *Server) handleSearchNotifications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := queryArgs(request, models.FacetType, models.FacetStatus, models.FacetCategory, models.FacetPriority)
	list, err := s.portal.Notifications(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search notifications: %v", err)), nil
	}
	return jsonResult(list)
}

// Transport is the SSE transport serving a Server.
type Transport struct {
	sse *server.SSEServer
	mux *http.ServeMux
}

// NewTransport builds the SSE endpoints under BasePath.
func NewTransport(mcpServer *server.MCPServer) *Transport {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath(BasePath))

	mux := http.NewServeMux()
	mux.HandleFunc(BasePath, func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc(BasePath+"/sse", sseServer.ServeHTTP)
	mux.HandleFunc(BasePath+"/message", sseServer.ServeHTTP)
	return &Transport{sse: sseServer, mux: mux}
}

func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// SSE streams outlive the server's write timeout.
	if r.URL.Path == BasePath+"/sse" {
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	}
	t.mux.ServeHTTP(w, r)
}

// Shutdown closes open SSE streams.
func (t *Transport) Shutdown(ctx context.Context) error {
	return t.sse.Shutdown(ctx)
}
