package repository

import (
	"context"
	"fmt"
	"slices"

	"deployment-portal/backend/pkg/models"
)

// MemoryRepository serves a loaded Snapshot. The snapshot is never mutated,
// so concurrent readers need no locking.
type MemoryRepository struct {
	snap *Snapshot
}

// NewMemoryRepository wraps snap. A nil snapshot yields an empty repository.
func NewMemoryRepository(snap *Snapshot) *MemoryRepository {
	if snap == nil {
		snap = &Snapshot{}
	}
	return &MemoryRepository{snap: snap}
}

// LoadMemoryRepository loads src once and serves the result.
func LoadMemoryRepository(ctx context.Context, src Source) (*MemoryRepository, error) {
	snap, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return NewMemoryRepository(snap), nil
}

func (r *MemoryRepository) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	return slices.Clone(r.snap.Workflows), nil
}

func (r *MemoryRepository) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	for _, list := range [][]models.Workflow{r.snap.Workflows, r.snap.Pipeline} {
		for i := range list {
			if list[i].ID == id {
				w := list[i]
				return &w, nil
			}
		}
	}
	return nil, fmt.Errorf("workflow %q: %w", id, ErrNotFound)
}

func (r *MemoryRepository) ListPipeline(ctx context.Context) ([]models.Workflow, error) {
	return slices.Clone(r.snap.Pipeline), nil
}

func (r *MemoryRepository) ListCABRequests(ctx context.Context) ([]models.CABRequest, error) {
	return slices.Clone(r.snap.CABRequests), nil
}

func (r *MemoryRepository) GetCABRequest(ctx context.Context, id string) (*models.CABRequest, error) {
	for i := range r.snap.CABRequests {
		req := r.snap.CABRequests[i]
		if req.ID == id || req.RequestID == id {
			return &req, nil
		}
	}
	return nil, fmt.Errorf("cab request %q: %w", id, ErrNotFound)
}

func (r *MemoryRepository) ListSecurityTickets(ctx context.Context) ([]models.SecurityTicket, error) {
	return slices.Clone(r.snap.SecurityTickets), nil
}

func (r *MemoryRepository) ListUploads(ctx context.Context) ([]models.Upload, error) {
	return slices.Clone(r.snap.Uploads), nil
}

func (r *MemoryRepository) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return slices.Clone(r.snap.Notifications), nil
}

func (r *MemoryRepository) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	return slices.Clone(r.snap.Alerts), nil
}

func (r *MemoryRepository) Metrics(ctx context.Context) ([]models.Metric, error) {
	return slices.Clone(r.snap.Metrics), nil
}

// RoleStats returns the quick stats for role; unknown roles get none.
func (r *MemoryRepository) RoleStats(ctx context.Context, role models.Role) ([]models.Stat, error) {
	return slices.Clone(r.snap.RoleStats[role]), nil
}

func (r *MemoryRepository) RecentActivity(ctx context.Context) ([]models.Activity, error) {
	return slices.Clone(r.snap.Activity), nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Validate rejects duplicate IDs within a kind and stats for unknown roles.
func (s *Snapshot) Validate() error {
	checks := []struct {
		kind string
		ids  []string
	}{
		{"workflow", ids(s.Workflows, func(w models.Workflow) string { return w.ID })},
		{"pipeline", ids(s.Pipeline, func(w models.Workflow) string { return w.ID })},
		{"cab_request", ids(s.CABRequests, func(c models.CABRequest) string { return c.ID })},
		{"security_ticket", ids(s.SecurityTickets, func(t models.SecurityTicket) string { return t.ID })},
		{"upload", ids(s.Uploads, func(u models.Upload) string { return u.ID })},
		{"notification", ids(s.Notifications, func(n models.Notification) string { return n.ID })},
		{"alert", ids(s.Alerts, func(a models.Alert) string { return a.ID })},
	}
	for _, c := range checks {
		seen := make(map[string]bool, len(c.ids))
		for _, id := range c.ids {
			if id == "" {
				return fmt.Errorf("%s with empty id", c.kind)
			}
			if seen[id] {
				return fmt.Errorf("duplicate %s id %q", c.kind, id)
			}
			seen[id] = true
		}
	}
	for role := range s.RoleStats {
		if !role.Valid() {
			return fmt.Errorf("stats for unknown role %q", role)
		}
	}
	return nil
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}
