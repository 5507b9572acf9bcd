package models

import (
	"strings"
	"time"
)

// Priority ranks records across every registry.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Color returns the badge classes for the priority.
func (p Priority) Color() string {
	switch p {
	case PriorityCritical:
		return "bg-red-100 text-red-800"
	case PriorityHigh:
		return "bg-orange-100 text-orange-800"
	case PriorityMedium:
		return "bg-yellow-100 text-yellow-800"
	case PriorityLow:
		return "bg-green-100 text-green-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// RiskLevel shares the priority scale.
type RiskLevel = Priority

// StageStatus is the state of one pipeline stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in-progress"
	StageCompleted  StageStatus = "completed"
	StageBlocked    StageStatus = "blocked"
)

// Label renders the status for display ("in progress").
func (s StageStatus) Label() string {
	return strings.Replace(string(s), "-", " ", 1)
}

// Color returns the badge classes for the stage status.
func (s StageStatus) Color() string {
	switch s {
	case StageCompleted:
		return "bg-green-100 text-green-800"
	case StageInProgress:
		return "bg-blue-100 text-blue-800"
	case StageBlocked:
		return "bg-red-100 text-red-800"
	case StagePending:
		return "bg-gray-100 text-gray-600"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// WorkflowState is the overall state of a project's release.
type WorkflowState string

const (
	WorkflowActive    WorkflowState = "active"
	WorkflowCompleted WorkflowState = "completed"
	WorkflowBlocked   WorkflowState = "blocked"
	WorkflowOnHold    WorkflowState = "on-hold"
)

// Color returns the badge classes for the workflow state.
func (s WorkflowState) Color() string {
	switch s {
	case WorkflowCompleted:
		return "bg-green-100 text-green-800"
	case WorkflowActive:
		return "bg-blue-100 text-blue-800"
	case WorkflowBlocked:
		return "bg-red-100 text-red-800"
	case WorkflowOnHold:
		return "bg-yellow-100 text-yellow-800"
	default:
		return "bg-gray-100 text-gray-600"
	}
}

// StageDefinition names one of the fixed release steps.
type StageDefinition struct {
	Name        string
	Description string
}

// StandardStages is the five-step release pipeline.
var StandardStages = []StageDefinition{
	{Name: "Code Upload", Description: "Developer uploads tested code"},
	{Name: "QA Testing", Description: "Generate Test Completion Report"},
	{Name: "Security Scan", Description: "IT Security assessment"},
	{Name: "CAB Approval", Description: "Change Advisory Board review"},
	{Name: "Deployment", Description: "Support team deployment"},
}

// WorkflowStage is one step of a project's release.
type WorkflowStage struct {
	ID          int         `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Status      StageStatus `json:"status" yaml:"status"`
	Assignee    *string     `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Duration    *string     `json:"duration,omitempty" yaml:"duration,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Issues      int         `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// WorkflowMetrics are display-only timing figures.
type WorkflowMetrics struct {
	TotalTime    string `json:"total_time" yaml:"total_time"`
	AvgStageTime string `json:"avg_stage_time" yaml:"avg_stage_time"`
	BlockedTime  string `json:"blocked_time" yaml:"blocked_time"`
	Efficiency   int    `json:"efficiency" yaml:"efficiency"`
}

// Workflow is a project moving through the release pipeline.
//
// ProgressPercent is supplied with the record and is not derived from the
// stage statuses; the two may disagree.
type Workflow struct {
	ID                  string          `json:"id" yaml:"id"`
	ProjectName         string          `json:"project_name" yaml:"project_name"`
	Version             string          `json:"version" yaml:"version"`
	Status              WorkflowState   `json:"status" yaml:"status"`
	Priority            Priority        `json:"priority" yaml:"priority"`
	ProgressPercent     int             `json:"progress_percent" yaml:"progress_percent"`
	Stages              []WorkflowStage `json:"stages" yaml:"stages"`
	StartedAt           time.Time       `json:"started_at" yaml:"started_at"`
	EstimatedCompletion *time.Time      `json:"estimated_completion,omitempty" yaml:"estimated_completion,omitempty"`
	LastActivity        time.Time       `json:"last_activity" yaml:"last_activity"`
	Metrics             WorkflowMetrics `json:"metrics" yaml:"metrics"`
}
