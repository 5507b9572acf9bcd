package models

import "time"

// CABStatus tracks a request through the Change Advisory Board.
type CABStatus string

const (
	CABPendingReview CABStatus = "pending-review"
	CABScheduled     CABStatus = "scheduled"
	CABApproved      CABStatus = "approved"
	CABRejected      CABStatus = "rejected"
	CABOnHold        CABStatus = "on-hold"
)

// Color returns the badge classes for the CAB status.
func (s CABStatus) Color() string {
	switch s {
	case CABApproved:
		return "bg-green-100 text-green-800"
	case CABRejected:
		return "bg-red-100 text-red-800"
	case CABScheduled:
		return "bg-blue-100 text-blue-800"
	case CABOnHold:
		return "bg-yellow-100 text-yellow-800"
	case CABPendingReview:
		return "bg-orange-100 text-orange-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// CABRequest asks the board to approve a deployment.
type CABRequest struct {
	ID                string     `json:"id" yaml:"id"`
	RequestID         string     `json:"request_id" yaml:"request_id"`
	ProjectName       string     `json:"project_name" yaml:"project_name"`
	Version           string     `json:"version" yaml:"version"`
	Status            CABStatus  `json:"status" yaml:"status"`
	Priority          Priority   `json:"priority" yaml:"priority"`
	SubmittedBy       string     `json:"submitted_by" yaml:"submitted_by"`
	SubmittedAt       time.Time  `json:"submitted_at" yaml:"submitted_at"`
	ScheduledMeeting  *time.Time `json:"scheduled_meeting,omitempty" yaml:"scheduled_meeting,omitempty"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty" yaml:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty" yaml:"reviewed_at,omitempty"`
	ChangeType        string     `json:"change_type" yaml:"change_type"`
	BusinessImpact    string     `json:"business_impact" yaml:"business_impact"`
	RiskLevel         RiskLevel  `json:"risk_level" yaml:"risk_level"`
	HasCleanSecurity  bool       `json:"has_clean_security" yaml:"has_clean_security"`
	HasTestReport     bool       `json:"has_test_report" yaml:"has_test_report"`
	EstimatedDowntime string     `json:"estimated_downtime" yaml:"estimated_downtime"`
	RollbackPlan      bool       `json:"rollback_plan" yaml:"rollback_plan"`
	Review            *CABReview `json:"review,omitempty" yaml:"review,omitempty"`
}

// SearchFields implements filter.Record.
func (r CABRequest) SearchFields() []string {
	return []string{r.ProjectName, r.RequestID, r.Version}
}

// Facet implements filter.Record.
func (r CABRequest) Facet(name string) string {
	switch name {
	case FacetStatus:
		return string(r.Status)
	case FacetPriority:
		return string(r.Priority)
	default:
		return ""
	}
}

// CABReview is the long-form packet a board member reads before deciding.
// Text fields are Markdown.
type CABReview struct {
	SubmittedBy           string               `json:"submitted_by" yaml:"submitted_by"`
	RollbackTime          string               `json:"rollback_time" yaml:"rollback_time"`
	Description           string               `json:"description" yaml:"description"`
	TechnicalSummary      string               `json:"technical_summary" yaml:"technical_summary"`
	BusinessJustification string               `json:"business_justification" yaml:"business_justification"`
	TestingSummary        string               `json:"testing_summary" yaml:"testing_summary"`
	SecuritySummary       string               `json:"security_summary" yaml:"security_summary"`
	DeploymentWindow      string               `json:"deployment_window" yaml:"deployment_window"`
	AffectedSystems       []string             `json:"affected_systems" yaml:"affected_systems"`
	Dependencies          []string             `json:"dependencies" yaml:"dependencies"`
	RollbackCriteria      []string             `json:"rollback_criteria" yaml:"rollback_criteria"`
	Documents             []SupportingDocument `json:"documents" yaml:"documents"`
}

// DocumentType classifies a supporting document.
type DocumentType string

const (
	DocTestReport    DocumentType = "test-report"
	DocSecurityScan  DocumentType = "security-scan"
	DocTechnicalSpec DocumentType = "technical-spec"
	DocRollbackPlan  DocumentType = "rollback-plan"
)

// DocumentStatus is the scan outcome of a supporting document.
type DocumentStatus string

const (
	DocClean   DocumentStatus = "clean"
	DocIssues  DocumentStatus = "issues"
	DocPending DocumentStatus = "pending"
)

// Color returns the badge classes for the document status.
func (s DocumentStatus) Color() string {
	switch s {
	case DocClean:
		return "bg-green-100 text-green-800"
	case DocIssues:
		return "bg-red-100 text-red-800"
	case DocPending:
		return "bg-gray-100 text-gray-600"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// SupportingDocument is an artifact attached to a CAB request. Only the
// name is modelled; there is no file behind it.
type SupportingDocument struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Type       DocumentType   `json:"type" yaml:"type"`
	Size       string         `json:"size" yaml:"size"`
	UploadedAt time.Time      `json:"uploaded_at" yaml:"uploaded_at"`
	Status     DocumentStatus `json:"status" yaml:"status"`
}

// Decision is a board member's verdict on a request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	DecisionOnHold   Decision = "on-hold"
)

// Valid reports whether d is a decision the board can record.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionOnHold:
		return true
	default:
		return false
	}
}

// RecordedDecision is a decision captured in the current session only.
type RecordedDecision struct {
	RequestID  string    `json:"request_id"`
	Decision   Decision  `json:"decision"`
	Comments   string    `json:"comments"`
	DecidedBy  string    `json:"decided_by"`
	RecordedAt time.Time `json:"recorded_at"`
}
