// Package services implements the portal's use cases on top of the record
// repository and per-user session state.
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/filter"
	"deployment-portal/backend/internal/forms"
	"deployment-portal/backend/internal/metrics"
	"deployment-portal/backend/internal/pipeline"
	"deployment-portal/backend/internal/repository"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

// ErrSubmissionInFlight is returned when a form is submitted again before
// the previous submission finished.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// Success banners.
var (
	UploadSuccess = async.Message{
		Title: "Upload Successful!",
		Body:  "Your code package has been submitted for team lead approval.",
	}
	DecisionRecorded = async.Message{
		Title: "Decision Recorded!",
		Body:  "Your CAB decision has been recorded and all stakeholders have been notified.",
	}
)

// Options configures a PortalService. Zero values take defaults.
type Options struct {
	Scheduler   *async.Scheduler
	Uploader    async.UploaderOptions
	SubmitDelay time.Duration
	Logger      Logger
	Meter       metric.Meter
}

// PortalService implements Portal.
type PortalService struct {
	repo      repository.Repository
	sched     *async.Scheduler
	uploader  *async.FileUploader
	submitter *async.Submitter
	logger    Logger
	decisions metric.Int64Counter
}

var _ Portal = (*PortalService)(nil)

// NewPortalService creates a new PortalService.
func NewPortalService(repo repository.Repository, opts Options) (*PortalService, error) {
	if opts.Scheduler == nil {
		opts.Scheduler = async.NewScheduler(nil)
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter("deployment-portal/backend/internal/services")
	}
	decisions, err := opts.Meter.Int64Counter("dmp.cab.decisions",
		metric.WithDescription("CAB decisions recorded"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create decision counter: %w", err)
	}
	return &PortalService{
		repo:      repo,
		sched:     opts.Scheduler,
		uploader:  async.NewFileUploader(opts.Scheduler, opts.Uploader),
		submitter: async.NewSubmitter(opts.Scheduler, opts.SubmitDelay),
		logger:    opts.Logger,
		decisions: decisions,
	}, nil
}

// WorkflowView is a workflow with its stage timeline and summary.
type WorkflowView struct {
	models.Workflow
	Timeline []pipeline.StageView `json:"timeline"`
	Summary  pipeline.Summary     `json:"summary"`
}

func newWorkflowView(w models.Workflow) WorkflowView {
	return WorkflowView{Workflow: w, Timeline: pipeline.Timeline(w), Summary: pipeline.Summarize(w)}
}

func newWorkflowViews(ws []models.Workflow) []WorkflowView {
	out := make([]WorkflowView, len(ws))
	for i, w := range ws {
		out[i] = newWorkflowView(w)
	}
	return out
}

// Dashboard is everything the home page shows for one user.
type Dashboard struct {
	User           models.User          `json:"user"`
	RoleLabel      string               `json:"role_label"`
	Welcome        string               `json:"welcome"`
	QuickActions   []models.QuickAction `json:"quick_actions"`
	Stats          []models.Stat        `json:"stats"`
	Metrics        []models.Metric      `json:"metrics"`
	Pipeline       []WorkflowView       `json:"pipeline"`
	Alerts         []models.Alert       `json:"alerts"`
	ActionRequired int                  `json:"action_required"`
	Activity       []models.Activity    `json:"activity"`
}

// Dashboard assembles the home page for the session's user.
func (s *PortalService) Dashboard(ctx context.Context, st *session.State) (*Dashboard, error) {
	user := st.User()
	stats, err := s.repo.RoleStats(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	mets, err := s.repo.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.ListPipeline(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := s.Alerts(ctx, st)
	if err != nil {
		return nil, err
	}
	activity, err := s.repo.RecentActivity(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		User:           user,
		RoleLabel:      user.Role.Label(),
		Welcome:        user.Role.WelcomeMessage(),
		QuickActions:   user.Role.QuickActions(),
		Stats:          stats,
		Metrics:        mets,
		Pipeline:       newWorkflowViews(projects),
		Alerts:         alerts,
		ActionRequired: filter.CountWhere(alerts, func(a models.Alert) bool { return a.ActionRequired }),
		Activity:       activity,
	}, nil
}

// Workflows returns the tracked workflows with their timelines.
func (s *PortalService) Workflows(ctx context.Context) ([]WorkflowView, error) {
	ws, err := s.repo.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	return newWorkflowViews(ws), nil
}

// Workflow returns one workflow or pipeline project.
func (s *PortalService) Workflow(ctx context.Context, id string) (*WorkflowView, error) {
	w, err := s.repo.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	v := newWorkflowView(*w)
	return &v, nil
}

// Pipeline returns the dashboard pipeline projects.
func (s *PortalService) Pipeline(ctx context.Context) ([]WorkflowView, error) {
	ps, err := s.repo.ListPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return newWorkflowViews(ps), nil
}

// Listing is one filtered registry page. Stats describe the whole registry,
// not just the matching items.
type Listing[T any] struct {
	Items []T            `json:"items"`
	Total int            `json:"total"`
	Stats map[string]int `json:"stats"`
	Query filter.Query   `json:"-"`
}

// CABRequestView is a CAB request with the session's decision on it.
type CABRequestView struct {
	models.CABRequest
	Decision *models.RecordedDecision `json:"decision,omitempty"`
}

func (s *PortalService) cabView(st *session.State, r models.CABRequest) CABRequestView {
	v := CABRequestView{CABRequest: r}
	if st != nil {
		if d, ok := st.Decision(r.RequestID); ok {
			v.Decision = &d
		}
	}
	return v
}

// CABRequests lists CAB requests matching q.
func (s *PortalService) CABRequests(ctx context.Context, st *session.State, q filter.Query) (*Listing[CABRequestView], error) {
	all, err := s.repo.ListCABRequests(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := filter.CountBy(all, models.FacetStatus)
	views := make([]CABRequestView, 0, len(all))
	for _, r := range filter.Apply(all, q) {
		views = append(views, s.cabView(st, r))
	}
	return &Listing[CABRequestView]{
		Items: views,
		Total: len(all),
		Stats: map[string]int{
			"total":     len(all),
			"pending":   byStatus[string(models.CABPendingReview)],
			"scheduled": byStatus[string(models.CABScheduled)],
			"approved":  byStatus[string(models.CABApproved)],
			"rejected":  byStatus[string(models.CABRejected)],
		},
		Query: q,
	}, nil
}

// CABRequest returns one request by record ID or request number.
func (s *PortalService) CABRequest(ctx context.Context, st *session.State, id string) (*CABRequestView, error) {
	r, err := s.repo.GetCABRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.cabView(st, *r)
	return &v, nil
}

// SecurityTickets lists remediation tickets matching q.
func (s *PortalService) SecurityTickets(ctx context.Context, q filter.Query) (*Listing[models.SecurityTicket], error) {
	all, err := s.repo.ListSecurityTickets(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := filter.CountBy(all, models.FacetStatus)
	return &Listing[models.SecurityTicket]{
		Items: filter.Apply(all, q),
		Total: len(all),
		Stats: map[string]int{
			"total":           len(all),
			"pending":         byStatus[string(models.TicketPendingScan)],
			"scanning":        byStatus[string(models.TicketScanning)],
			"vulnerabilities": byStatus[string(models.TicketVulnerabilitiesFound)],
			"clean":           byStatus[string(models.TicketClean)],
		},
		Query: q,
	}, nil
}

// Uploads lists the session's submitted uploads, newest first, followed by
// the recorded upload history.
func (s *PortalService) Uploads(ctx context.Context, st *session.State, q filter.Query) (*Listing[models.Upload], error) {
	history, err := s.repo.ListUploads(ctx)
	if err != nil {
		return nil, err
	}
	var all []models.Upload
	if st != nil {
		all = st.Uploads()
	}
	all = append(all, history...)
	byStatus := filter.CountBy(all, models.FacetStatus)
	return &Listing[models.Upload]{
		Items: filter.Apply(all, q),
		Total: len(all),
		Stats: map[string]int{
			"total":            len(all),
			"pending_approval": byStatus[string(models.UploadPendingApproval)],
			"in_review":        byStatus[string(models.UploadInReview)],
			"approved":         byStatus[string(models.UploadApproved)],
			"rejected":         byStatus[string(models.UploadRejected)],
		},
		Query: q,
	}, nil
}

// Notifications lists notifications matching q.
func (s *PortalService) Notifications(ctx context.Context, q filter.Query) (*Listing[models.Notification], error) {
	all, err := s.repo.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := filter.CountBy(all, models.FacetStatus)
	return &Listing[models.Notification]{
		Items: filter.Apply(all, q),
		Total: len(all),
		Stats: map[string]int{
			"total":           len(all),
			"sent":            byStatus[string(models.NotificationSent)],
			"pending":         byStatus[string(models.NotificationPending)],
			"failed":          byStatus[string(models.NotificationFailed)],
			"action_required": filter.CountWhere(all, func(n models.Notification) bool { return n.ActionRequired }),
		},
		Query: q,
	}, nil
}

// AddFile adds a file to the session's upload form and starts its
// simulated transfer. The transfer outlives the request that started it.
func (s *PortalService) AddFile(ctx context.Context, st *session.State, name string, size int64, contentType string) (models.UploadedFile, error) {
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" || !acceptedFile(name) || size < 0 {
		return models.UploadedFile{}, &forms.ValidationError{Fields: []string{"file"}}
	}

	f := models.UploadedFile{
		ID:     uuid.NewString(),
		Name:   name,
		Size:   size,
		Type:   contentType,
		Status: models.FileUploading,
	}
	st.AddFile(f, nil)

	_, c := s.uploader.Start(context.WithoutCancel(ctx), f, func(done models.UploadedFile) {
		if !st.UpdateFile(done) {
			return
		}
		metrics.FileUpload(string(done.Status))
		s.logger.Debug("file transfer finished", "session", st.ID(), "file", done.Name, "status", done.Status)
	})
	st.TrackTransfer(f.ID, c)
	return f, nil
}

func acceptedFile(name string) bool {
	lower := strings.ToLower(name)
	return slices.ContainsFunc(forms.AcceptedExtensions, func(ext string) bool {
		return strings.HasSuffix(lower, ext)
	})
}

// RemoveFile drops a file from the upload form.
func (s *PortalService) RemoveFile(ctx context.Context, st *session.State, id string) error {
	if !st.RemoveFile(id) {
		return fmt.Errorf("file %q: %w", id, repository.ErrNotFound)
	}
	return nil
}

// SubmitUpload submits the upload form using the session's file list. The
// upload is recorded once the submission delay has passed.
func (s *PortalService) SubmitUpload(ctx context.Context, st *session.State, form forms.UploadForm) (*models.Upload, *async.Completion, error) {
	if !st.BeginSubmit(access.PageUpload) {
		return nil, nil, ErrSubmissionInFlight
	}
	form.Files = st.Files()
	up, err := form.Submit(st.User(), s.sched.Now())
	if err != nil {
		st.EndSubmit(access.PageUpload)
		return nil, nil, err
	}

	s.logger.Info("upload submitted",
		"id", up.ID,
		"project", up.ProjectName,
		"version", up.Version,
		"priority", up.Priority,
		"change_type", up.ChangeType,
		"files", up.FileCount,
		"size", up.FileSize,
		"uploaded_by", up.UploadedBy,
		"testing_notes", form.TestingNotes,
	)

	c := s.submitter.Submit(context.WithoutCancel(ctx), func() {
		st.AddUpload(up)
		st.ClearFiles()
		st.EndSubmit(access.PageUpload)
		st.Banner(access.PageUpload).Show(UploadSuccess)
		metrics.Submission("upload", "success")
	})
	st.TrackSubmit(access.PageUpload, c)
	return &up, c, nil
}

// SubmitDecision records a CAB decision on the session once the
// submission delay has passed.
func (s *PortalService) SubmitDecision(ctx context.Context, st *session.State, form forms.DecisionForm) (*models.RecordedDecision, *async.Completion, error) {
	req, err := s.repo.GetCABRequest(ctx, form.RequestID)
	if err != nil {
		return nil, nil, err
	}
	form.RequestID = req.RequestID

	if !st.BeginSubmit(access.PageCAB) {
		return nil, nil, ErrSubmissionInFlight
	}
	rec, err := form.Record(st.User(), s.sched.Now())
	if err != nil {
		st.EndSubmit(access.PageCAB)
		return nil, nil, err
	}

	s.logger.Info("CAB decision submitted",
		"request", rec.RequestID,
		"decision", rec.Decision,
		"comments", rec.Comments,
		"decided_by", rec.DecidedBy,
	)

	bg := context.WithoutCancel(ctx)
	c := s.submitter.Submit(bg, func() {
		st.RecordDecision(rec)
		st.EndSubmit(access.PageCAB)
		st.Banner(access.PageCAB).Show(DecisionRecorded)
		s.decisions.Add(bg, 1, metric.WithAttributes(attribute.String("decision", string(rec.Decision))))
		metrics.Submission("decision", string(rec.Decision))
	})
	st.TrackSubmit(access.PageCAB, c)
	return &rec, c, nil
}

// Alerts returns the dashboard alerts the session has not dismissed.
func (s *PortalService) Alerts(ctx context.Context, st *session.State) ([]models.Alert, error) {
	all, err := s.repo.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(a models.Alert) bool { return st.Dismissed(a.ID) }), nil
}

// DismissAlert hides an alert for the rest of the session.
func (s *PortalService) DismissAlert(ctx context.Context, st *session.State, id string) error {
	all, err := s.repo.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(all, func(a models.Alert) bool { return a.ID == id }) {
		return fmt.Errorf("alert %q: %w", id, repository.ErrNotFound)
	}
	st.DismissAlert(id)
	return nil
}

// Banner returns the page's success banner if it is showing.
func (s *PortalService) Banner(st *session.State, page access.Page) (async.Message, bool) {
	return st.Banner(page).Current()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
