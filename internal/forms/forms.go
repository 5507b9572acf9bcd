// Package forms validates and converts the portal's two input forms: the
// code upload form and the CAB decision form.
package forms

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"deployment-portal/backend/pkg/models"
)

// ValidationError lists the fields that block a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// ChangeType classifies an uploaded release.
type ChangeType string

const (
	ChangeFeature     ChangeType = "feature"
	ChangeBugfix      ChangeType = "bugfix"
	ChangeHotfix      ChangeType = "hotfix"
	ChangeEnhancement ChangeType = "enhancement"
	ChangeSecurity    ChangeType = "security"
)

// ChangeTypes lists the selectable change types in menu order.
var ChangeTypes = []ChangeType{ChangeFeature, ChangeBugfix, ChangeHotfix, ChangeEnhancement, ChangeSecurity}

// Label returns the menu text for the change type.
func (c ChangeType) Label() string {
	switch c {
	case ChangeFeature:
		return "New Feature"
	case ChangeBugfix:
		return "Bug Fix"
	case ChangeHotfix:
		return "Hotfix"
	case ChangeEnhancement:
		return "Enhancement"
	case ChangeSecurity:
		return "Security Update"
	default:
		return string(c)
	}
}

// AcceptedExtensions are the archive types the upload form offers.
var AcceptedExtensions = []string{".zip", ".tar", ".tar.gz", ".jar", ".war"}

// UploadForm is the state of the code upload form.
type UploadForm struct {
	ProjectName  string                `json:"project_name" form:"project_name"`
	Version      string                `json:"version" form:"version"`
	Description  string                `json:"description" form:"description"`
	Priority     models.Priority       `json:"priority" form:"priority"`
	ChangeType   ChangeType            `json:"change_type" form:"change_type"`
	TestingNotes string                `json:"testing_notes" form:"testing_notes"`
	Files        []models.UploadedFile `json:"files" form:"-"`
}

// UploadedFiles returns the files whose transfer succeeded.
func (f UploadForm) UploadedFiles() []models.UploadedFile {
	var out []models.UploadedFile
	for _, file := range f.Files {
		if file.Status == models.FileUploaded {
			out = append(out, file)
		}
	}
	return out
}

// Validate reports every reason the form cannot be submitted yet.
func (f UploadForm) Validate() error {
	var missing []string
	if strings.TrimSpace(f.ProjectName) == "" {
		missing = append(missing, "project_name")
	}
	if strings.TrimSpace(f.Version) == "" {
		missing = append(missing, "version")
	}
	if len(f.UploadedFiles()) == 0 {
		missing = append(missing, "files")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CanSubmit drives the submit button: it is enabled only when the form is
// valid and no submission is already in flight.
func (f UploadForm) CanSubmit(submitting bool) bool {
	return !submitting && f.Validate() == nil
}

// Submit converts a valid form into a pending-approval Upload.
func (f UploadForm) Submit(by models.User, now time.Time) (models.Upload, error) {
	if err := f.Validate(); err != nil {
		return models.Upload{}, err
	}
	files := f.UploadedFiles()
	var total int64
	for _, file := range files {
		total += file.Size
	}
	return models.Upload{
		ID:          "upload-" + uuid.NewString()[:8],
		ProjectName: strings.TrimSpace(f.ProjectName),
		Version:     strings.TrimSpace(f.Version),
		Status:      models.UploadPendingApproval,
		UploadedBy:  by.Name,
		UploadedAt:  now,
		Priority:    f.Priority,
		ChangeType:  string(f.ChangeType),
		FileCount:   len(files),
		FileSize:    FormatFileSize(total),
		Description: f.Description,
	}, nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count in base-1024 units with at most two
// decimals, e.g. "0 Bytes", "1.5 KB", "45.2 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v, i := float64(bytes), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizeUnits[i]
}

// DecisionForm is a CAB member's verdict on one request.
type DecisionForm struct {
	RequestID string          `json:"request_id" form:"request_id"`
	Decision  models.Decision `json:"decision" form:"decision"`
	Comments  string          `json:"comments" form:"comments"`
}

// Validate requires a known decision and non-blank comments.
func (d DecisionForm) Validate() error {
	var missing []string
	if !d.Decision.Valid() {
		missing = append(missing, "decision")
	}
	if strings.TrimSpace(d.Comments) == "" {
		missing = append(missing, "comments")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CanSubmit reports whether the decision button is enabled.
func (d DecisionForm) CanSubmit(submitting bool) bool {
	return !submitting && d.Validate() == nil
}

// Record converts a valid form into a session-local decision.
func (d DecisionForm) Record(by models.User, now time.Time) (models.RecordedDecision, error) {
	if err := d.Validate(); err != nil {
		return models.RecordedDecision{}, err
	}
	return models.RecordedDecision{
		RequestID:  d.RequestID,
		Decision:   d.Decision,
		Comments:   strings.TrimSpace(d.Comments),
		DecidedBy:  by.Name,
		RecordedAt: now,
	}, nil
}

// String describes the form for logs.
func (d DecisionForm) String() string {
	return fmt.Sprintf("%s on %s", d.Decision, d.RequestID)
}
