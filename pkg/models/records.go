package models

import "time"

// Facet names understood by filter queries.
const (
	FacetStatus   = "status"
	FacetPriority = "priority"
	FacetType     = "type"
	FacetCategory = "category"
)

// TicketStatus is the progress of a security assessment.
type TicketStatus string

const (
	TicketPendingScan          TicketStatus = "pending-scan"
	TicketScanning             TicketStatus = "scanning"
	TicketVulnerabilitiesFound TicketStatus = "vulnerabilities-found"
	TicketClean                TicketStatus = "clean"
	TicketRemediationRequired  TicketStatus = "remediation-required"
)

// Color returns the badge classes for the ticket status.
func (s TicketStatus) Color() string {
	switch s {
	case TicketClean:
		return "bg-green-100 text-green-800"
	case TicketVulnerabilitiesFound:
		return "bg-red-100 text-red-800"
	case TicketScanning:
		return "bg-blue-100 text-blue-800"
	case TicketRemediationRequired:
		return "bg-orange-100 text-orange-800"
	case TicketPendingScan:
		return "bg-yellow-100 text-yellow-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// SecurityTicket tracks a security assessment of one release.
type SecurityTicket struct {
	ID                 string       `json:"id" yaml:"id"`
	TicketID           string       `json:"ticket_id" yaml:"ticket_id"`
	ProjectName        string       `json:"project_name" yaml:"project_name"`
	Version            string       `json:"version" yaml:"version"`
	Status             TicketStatus `json:"status" yaml:"status"`
	Priority           Priority     `json:"priority" yaml:"priority"`
	AssignedTo         string       `json:"assigned_to" yaml:"assigned_to"`
	CreatedAt          time.Time    `json:"created_at" yaml:"created_at"`
	LastScanAt         *time.Time   `json:"last_scan_at,omitempty" yaml:"last_scan_at,omitempty"`
	VulnerabilityCount int          `json:"vulnerability_count" yaml:"vulnerability_count"`
	CriticalCount      int          `json:"critical_count" yaml:"critical_count"`
	HighCount          int          `json:"high_count" yaml:"high_count"`
	MediumCount        int          `json:"medium_count" yaml:"medium_count"`
	LowCount           int          `json:"low_count" yaml:"low_count"`
	ScanProgress       *int         `json:"scan_progress,omitempty" yaml:"scan_progress,omitempty"`
}

// SearchFields implements filter.Record.
func (t SecurityTicket) SearchFields() []string {
	return []string{t.ProjectName, t.TicketID, t.Version}
}

// Facet implements filter.Record.
func (t SecurityTicket) Facet(name string) string {
	switch name {
	case FacetStatus:
		return string(t.Status)
	case FacetPriority:
		return string(t.Priority)
	default:
		return ""
	}
}

// UploadStatus is the approval state of a code package.
type UploadStatus string

const (
	UploadPendingApproval UploadStatus = "pending-approval"
	UploadApproved        UploadStatus = "approved"
	UploadRejected        UploadStatus = "rejected"
	UploadInReview        UploadStatus = "in-review"
	UploadDeployed        UploadStatus = "deployed"
)

// Color returns the badge classes for the upload status.
func (s UploadStatus) Color() string {
	switch s {
	case UploadApproved:
		return "bg-green-100 text-green-800"
	case UploadRejected:
		return "bg-red-100 text-red-800"
	case UploadInReview:
		return "bg-blue-100 text-blue-800"
	case UploadPendingApproval:
		return "bg-yellow-100 text-yellow-800"
	case UploadDeployed:
		return "bg-purple-100 text-purple-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// Upload is a submitted code package.
type Upload struct {
	ID          string       `json:"id" yaml:"id"`
	ProjectName string       `json:"project_name" yaml:"project_name"`
	Version     string       `json:"version" yaml:"version"`
	Status      UploadStatus `json:"status" yaml:"status"`
	UploadedBy  string       `json:"uploaded_by" yaml:"uploaded_by"`
	UploadedAt  time.Time    `json:"uploaded_at" yaml:"uploaded_at"`
	ApprovedBy  *string      `json:"approved_by,omitempty" yaml:"approved_by,omitempty"`
	ApprovedAt  *time.Time   `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	Priority    Priority     `json:"priority" yaml:"priority"`
	ChangeType  string       `json:"change_type" yaml:"change_type"`
	FileCount   int          `json:"file_count" yaml:"file_count"`
	FileSize    string       `json:"file_size" yaml:"file_size"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// SearchFields implements filter.Record.
func (u Upload) SearchFields() []string {
	return []string{u.ProjectName, u.Version, u.UploadedBy}
}

// Facet implements filter.Record.
func (u Upload) Facet(name string) string {
	switch name {
	case FacetStatus:
		return string(u.Status)
	case FacetPriority:
		return string(u.Priority)
	default:
		return ""
	}
}

// FileStatus is the simulated transfer state of one file.
type FileStatus string

const (
	FileUploading FileStatus = "uploading"
	FileUploaded  FileStatus = "uploaded"
	FileError     FileStatus = "error"
)

// UploadedFile is a file attached to the upload form.
type UploadedFile struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Size   int64      `json:"size"`
	Type   string     `json:"type"`
	Status FileStatus `json:"status"`
}

// NotificationType is the delivery channel of a notification.
type NotificationType string

const (
	NotificationEmail  NotificationType = "email"
	NotificationSystem NotificationType = "system"
	NotificationAlert  NotificationType = "alert"
)

// NotificationCategory groups notifications by workflow area.
type NotificationCategory string

const (
	CategorySecurity   NotificationCategory = "security"
	CategoryApproval   NotificationCategory = "approval"
	CategoryDeployment NotificationCategory = "deployment"
	CategoryGeneral    NotificationCategory = "general"
)

// Color returns the badge classes for the category.
func (c NotificationCategory) Color() string {
	switch c {
	case CategorySecurity:
		return "bg-red-100 text-red-800"
	case CategoryApproval:
		return "bg-blue-100 text-blue-800"
	case CategoryDeployment:
		return "bg-green-100 text-green-800"
	case CategoryGeneral:
		return "bg-gray-100 text-gray-600"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// NotificationStatus is the delivery state of a notification.
type NotificationStatus string

const (
	NotificationSent    NotificationStatus = "sent"
	NotificationPending NotificationStatus = "pending"
	NotificationFailed  NotificationStatus = "failed"
	NotificationRead    NotificationStatus = "read"
	NotificationUnread  NotificationStatus = "unread"
)

// Color returns the badge classes for the notification status.
func (s NotificationStatus) Color() string {
	switch s {
	case NotificationSent:
		return "bg-green-100 text-green-800"
	case NotificationFailed:
		return "bg-red-100 text-red-800"
	case NotificationPending:
		return "bg-yellow-100 text-yellow-800"
	case NotificationRead:
		return "bg-blue-100 text-blue-800"
	case NotificationUnread:
		return "bg-orange-100 text-orange-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// Notification is a message the portal claims to have sent.
type Notification struct {
	ID             string               `json:"id" yaml:"id"`
	Type           NotificationType     `json:"type" yaml:"type"`
	Category       NotificationCategory `json:"category" yaml:"category"`
	Title          string               `json:"title" yaml:"title"`
	Message        string               `json:"message" yaml:"message"`
	Status         NotificationStatus   `json:"status" yaml:"status"`
	Priority       Priority             `json:"priority" yaml:"priority"`
	Recipient      string               `json:"recipient" yaml:"recipient"`
	Sender         string               `json:"sender" yaml:"sender"`
	Timestamp      time.Time            `json:"timestamp" yaml:"timestamp"`
	ProjectID      *string              `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	TicketID       *string              `json:"ticket_id,omitempty" yaml:"ticket_id,omitempty"`
	ActionRequired bool                 `json:"action_required" yaml:"action_required"`
	EmailTemplate  *string              `json:"email_template,omitempty" yaml:"email_template,omitempty"`
}

// SearchFields implements filter.Record.
func (n Notification) SearchFields() []string {
	return []string{n.Title, n.Message, n.Recipient}
}

// Facet implements filter.Record.
func (n Notification) Facet(name string) string {
	switch name {
	case FacetType:
		return string(n.Type)
	case FacetStatus:
		return string(n.Status)
	case FacetCategory:
		return string(n.Category)
	case FacetPriority:
		return string(n.Priority)
	default:
		return ""
	}
}

// AlertKind is the tone of a dashboard alert.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertWarning AlertKind = "warning"
	AlertInfo    AlertKind = "info"
	AlertError   AlertKind = "error"
)

// Color returns the badge classes for the alert kind.
func (k AlertKind) Color() string {
	switch k {
	case AlertSuccess:
		return "bg-green-100 text-green-800"
	case AlertWarning:
		return "bg-yellow-100 text-yellow-800"
	case AlertError:
		return "bg-red-100 text-red-800"
	case AlertInfo:
		return "bg-blue-100 text-blue-800"
	default:
		return "bg-blue-100 text-blue-800"
	}
}

// Alert is an entry in the dashboard notifications panel.
type Alert struct {
	ID             string    `json:"id" yaml:"id"`
	Kind           AlertKind `json:"kind" yaml:"kind"`
	Title          string    `json:"title" yaml:"title"`
	Message        string    `json:"message" yaml:"message"`
	Age            string    `json:"age" yaml:"age"`
	ActionRequired bool      `json:"action_required" yaml:"action_required"`
	ProjectID      *string   `json:"project_id,omitempty" yaml:"project_id,omitempty"`
}

// Trend is the direction of a metric change.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Metric is an overview card on the dashboard.
type Metric struct {
	Title       string  `json:"title" yaml:"title"`
	Value       string  `json:"value" yaml:"value"`
	Change      float64 `json:"change" yaml:"change"`
	Trend       Trend   `json:"trend" yaml:"trend"`
	Description string  `json:"description" yaml:"description"`
}

// Stat is one labelled counter in a role's stats row.
type Stat struct {
	Key   string `json:"key" yaml:"key"`
	Value int    `json:"value" yaml:"value"`
}

// Activity is a line in the recent activity feed.
type Activity struct {
	Message string `json:"message" yaml:"message"`
	Age     string `json:"age" yaml:"age"`
	Badge   string `json:"badge" yaml:"badge"`
	Tone    string `json:"tone" yaml:"tone"`
}
