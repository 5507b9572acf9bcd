package repository

import (
	"context"
	"errors"

	"deployment-portal/backend/pkg/models"
)

// ErrNotFound is returned when a record lookup has no match.
var ErrNotFound = errors.New("record not found")

// Snapshot is the complete set of portal records loaded at start-up.
type Snapshot struct {
	Workflows       []models.Workflow             `json:"workflows" yaml:"workflows"`
	Pipeline        []models.Workflow             `json:"pipeline" yaml:"pipeline"`
	CABRequests     []models.CABRequest           `json:"cab_requests" yaml:"cab_requests"`
	SecurityTickets []models.SecurityTicket       `json:"security_tickets" yaml:"security_tickets"`
	Uploads         []models.Upload               `json:"uploads" yaml:"uploads"`
	Notifications   []models.Notification         `json:"notifications" yaml:"notifications"`
	Alerts          []models.Alert                `json:"alerts" yaml:"alerts"`
	Metrics         []models.Metric               `json:"metrics" yaml:"metrics"`
	RoleStats       map[models.Role][]models.Stat `json:"role_stats" yaml:"role_stats"`
	Activity        []models.Activity             `json:"activity" yaml:"activity"`
}

// Source produces a Snapshot.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Repository is the read side the services consume.
type Repository interface {
	// ListWorkflows returns the tracked deployment workflows.
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	// GetWorkflow finds a workflow or pipeline project by ID.
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	// ListPipeline returns the projects shown on the dashboard pipeline.
	ListPipeline(ctx context.Context) ([]models.Workflow, error)
	ListCABRequests(ctx context.Context) ([]models.CABRequest, error)
	// GetCABRequest matches either the record ID or the CAB request number.
	GetCABRequest(ctx context.Context, id string) (*models.CABRequest, error)
	ListSecurityTickets(ctx context.Context) ([]models.SecurityTicket, error)
	ListUploads(ctx context.Context) ([]models.Upload, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	Metrics(ctx context.Context) ([]models.Metric, error)
	RoleStats(ctx context.Context, role models.Role) ([]models.Stat, error)
	RecentActivity(ctx context.Context) ([]models.Activity, error)
	// Ping reports whether the repository is usable.
	Ping(ctx context.Context) error
}
