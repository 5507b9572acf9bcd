package services

import (
	"context"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/filter"
	"deployment-portal/backend/internal/forms"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Portal is what the HTTP, page and MCP layers need from the service.
type Portal interface {
	Dashboard(ctx context.Context, st *session.State) (*Dashboard, error)
	Workflows(ctx context.Context) ([]WorkflowView, error)
	Workflow(ctx context.Context, id string) (*WorkflowView, error)
	Pipeline(ctx context.Context) ([]WorkflowView, error)

	CABRequests(ctx context.Context, st *session.State, q filter.Query) (*Listing[CABRequestView], error)
	CABRequest(ctx context.Context, st *session.State, id string) (*CABRequestView, error)
	SecurityTickets(ctx context.Context, q filter.Query) (*Listing[models.SecurityTicket], error)
	Uploads(ctx context.Context, st *session.State, q filter.Query) (*Listing[models.Upload], error)
	Notifications(ctx context.Context, q filter.Query) (*Listing[models.Notification], error)

	AddFile(ctx context.Context, st *session.State, name string, size int64, contentType string) (models.UploadedFile, error)
	RemoveFile(ctx context.Context, st *session.State, id string) error
	SubmitUpload(ctx context.Context, st *session.State, form forms.UploadForm) (*models.Upload, *async.Completion, error)
	SubmitDecision(ctx context.Context, st *session.State, form forms.DecisionForm) (*models.RecordedDecision, *async.Completion, error)

	Alerts(ctx context.Context, st *session.State) ([]models.Alert, error)
	DismissAlert(ctx context.Context, st *session.State, id string) error
	Banner(st *session.State, page access.Page) (async.Message, bool)
}
