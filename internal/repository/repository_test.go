package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deployment-portal/backend/pkg/models"
)

func loadFixtures(t *testing.T) *MemoryRepository {
	t.Helper()
	repo, err := LoadMemoryRepository(context.Background(), NewFixtureSource())
	require.NoError(t, err)
	return repo
}

func TestFixtureSource_Counts(t *testing.T) {
	snap, err := NewFixtureSource().Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, snap.Validate())

	assert.Len(t, snap.Workflows, 2)
	assert.Len(t, snap.Pipeline, 3)
	assert.Len(t, snap.CABRequests, 4)
	assert.Len(t, snap.SecurityTickets, 4)
	assert.Len(t, snap.Uploads, 4)
	assert.Len(t, snap.Notifications, 5)
	assert.Len(t, snap.Alerts, 4)
	assert.Len(t, snap.Metrics, 4)
	assert.Len(t, snap.Activity, 3)
	for _, role := range models.AllRoles {
		assert.Len(t, snap.RoleStats[role], 3, "role %s", role)
	}
}

func TestFixtureSource_Details(t *testing.T) {
	repo := loadFixtures(t)
	ctx := context.Background()

	wf, err := repo.GetWorkflow(ctx, "wf-001")
	require.NoError(t, err)
	require.Len(t, wf.Stages, 5)
	assert.Equal(t, models.StageInProgress, wf.Stages[2].Status)
	assert.Equal(t, 2, wf.Stages[2].Issues)
	require.NotNil(t, wf.Stages[0].CompletedAt)
	assert.Equal(t, 14, wf.Stages[0].CompletedAt.Hour())

	proj, err := repo.GetWorkflow(ctx, "proj-003")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowBlocked, proj.Status)

	req, err := repo.GetCABRequest(ctx, "CAB-2024-001")
	require.NoError(t, err)
	assert.Equal(t, "cab-001", req.ID)
	require.NotNil(t, req.Review)
	assert.Len(t, req.Review.Documents, 4)
	assert.Contains(t, req.Review.Description, "**user dashboard**")

	sec, err := repo.ListSecurityTickets(ctx)
	require.NoError(t, err)
	require.NotNil(t, sec[1].ScanProgress)
	assert.Equal(t, 65, *sec[1].ScanProgress)
	assert.Nil(t, sec[1].LastScanAt)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	repo := loadFixtures(t)

	_, err := repo.GetWorkflow(context.Background(), "wf-999")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.GetCABRequest(context.Background(), "CAB-1999-001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ListsAreCopies(t *testing.T) {
	repo := loadFixtures(t)
	ctx := context.Background()

	first, err := repo.ListUploads(ctx)
	require.NoError(t, err)
	first[0].ProjectName = "mutated"

	again, err := repo.ListUploads(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Project Alpha", again[0].ProjectName)
}

func TestSnapshot_Validate(t *testing.T) {
	dup := &Snapshot{Alerts: []models.Alert{{ID: "a"}, {ID: "a"}}}
	assert.ErrorContains(t, dup.Validate(), `duplicate alert id "a"`)

	empty := &Snapshot{Uploads: []models.Upload{{}}}
	assert.Error(t, empty.Validate())

	badRole := &Snapshot{RoleStats: map[models.Role][]models.Stat{"admin": nil}}
	assert.Error(t, badRole.Validate())

	assert.NoError(t, (&Snapshot{}).Validate())
}

func TestMemoryRepository_NilSnapshot(t *testing.T) {
	repo := NewMemoryRepository(nil)
	got, err := repo.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
