package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deployment-portal/backend/pkg/models"
)

func file(status models.FileStatus, size int64) models.UploadedFile {
	return models.UploadedFile{ID: string(status), Name: "app.jar", Size: size, Status: status}
}

func TestUploadForm_CanSubmit(t *testing.T) {
	valid := UploadForm{
		ProjectName: "Project Alpha",
		Version:     "v2.1.0",
		Files:       []models.UploadedFile{file(models.FileUploaded, 10)},
	}

	tests := []struct {
		name       string
		mutate     func(*UploadForm)
		submitting bool
		want       bool
	}{
		{"valid", func(*UploadForm) {}, false, true},
		{"in flight", func(*UploadForm) {}, true, false},
		{"no files", func(f *UploadForm) { f.Files = nil }, false, false},
		{"only uploading", func(f *UploadForm) { f.Files = []models.UploadedFile{file(models.FileUploading, 1)} }, false, false},
		{"only errored", func(f *UploadForm) { f.Files = []models.UploadedFile{file(models.FileError, 1)} }, false, false},
		{"one good among failures", func(f *UploadForm) {
			f.Files = []models.UploadedFile{file(models.FileError, 1), file(models.FileUploaded, 1)}
		}, false, true},
		{"blank project", func(f *UploadForm) { f.ProjectName = "  " }, false, false},
		{"blank version", func(f *UploadForm) { f.Version = "" }, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			f.Files = append([]models.UploadedFile(nil), valid.Files...)
			tt.mutate(&f)
			assert.Equal(t, tt.want, f.CanSubmit(tt.submitting))
		})
	}
}

func TestUploadForm_ValidateListsFields(t *testing.T) {
	err := UploadForm{}.Validate()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"project_name", "version", "files"}, verr.Fields)
}

func TestUploadForm_SubmitCountsOnlyUploadedFiles(t *testing.T) {
	now := time.Date(2024, 1, 16, 9, 15, 0, 0, time.UTC)
	f := UploadForm{
		ProjectName: " Project Beta ",
		Version:     "v1.3.2",
		Priority:    models.PriorityMedium,
		ChangeType:  ChangeBugfix,
		Files: []models.UploadedFile{
			file(models.FileUploaded, 1024),
			file(models.FileError, 1<<30),
			file(models.FileUploaded, 512),
		},
	}

	up, err := f.Submit(models.NewUser("mike.developer@company.com", models.RoleDeveloper), now)
	require.NoError(t, err)

	assert.Equal(t, "Project Beta", up.ProjectName)
	assert.Equal(t, models.UploadPendingApproval, up.Status)
	assert.Equal(t, "Mike Developer", up.UploadedBy)
	assert.Equal(t, 2, up.FileCount)
	assert.Equal(t, "1.5 KB", up.FileSize)
	assert.Equal(t, "bugfix", up.ChangeType)
	assert.Equal(t, now, up.UploadedAt)
	assert.NotEmpty(t, up.ID)
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:                  "0 Bytes",
		1:                  "1 Bytes",
		1023:               "1023 Bytes",
		1024:               "1 KB",
		1536:               "1.5 KB",
		47395635:           "45.2 MB",
		5 * 1024 * 1024:    "5 MB",
		3 << 40:            "3072 GB",
		1024*1024*1024 + 1: "1 GB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFileSize(in), "bytes=%d", in)
	}
}

func TestDecisionForm(t *testing.T) {
	assert.False(t, DecisionForm{Comments: "ok"}.CanSubmit(false))
	assert.False(t, DecisionForm{Decision: models.DecisionApproved, Comments: "   "}.CanSubmit(false))
	assert.False(t, DecisionForm{Decision: "maybe", Comments: "hmm"}.CanSubmit(false))
	assert.False(t, DecisionForm{Decision: models.DecisionApproved, Comments: "ok"}.CanSubmit(true))
	assert.True(t, DecisionForm{Decision: models.DecisionOnHold, Comments: "need rollback plan"}.CanSubmit(false))

	rec, err := DecisionForm{RequestID: "CAB-2024-001", Decision: models.DecisionRejected, Comments: " no "}.
		Record(models.NewUser("cab.chair@company.com", models.RoleCAB), time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "no", rec.Comments)
	assert.Equal(t, "Cab Chair", rec.DecidedBy)
}
