// Package models defines the domain models for the deployment portal
package models

import "strings"

// Role identifies the team a portal user belongs to. Any string is
// representable so that an unrecognised role can still be displayed.
type Role string

const (
	RoleDeveloper      Role = "developer"
	RoleQA             Role = "qa"
	RoleProjectManager Role = "project-manager"
	RoleITSecurity     Role = "it-security"
	RoleCAB            Role = "cab"
	RoleSupport        Role = "support"
)

// AllRoles lists the known roles in sign-in menu order.
var AllRoles = []Role{
	RoleDeveloper,
	RoleQA,
	RoleProjectManager,
	RoleITSecurity,
	RoleCAB,
	RoleSupport,
}

// ParseRole normalizes user input into a Role.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleQA, RoleProjectManager, RoleITSecurity, RoleCAB, RoleSupport:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Label returns the human readable team name.
func (r Role) Label() string {
	switch r {
	case RoleDeveloper:
		return "Developer"
	case RoleQA:
		return "QA Team"
	case RoleProjectManager:
		return "Project Manager"
	case RoleITSecurity:
		return "IT Security"
	case RoleCAB:
		return "CAB Member"
	case RoleSupport:
		return "Support Team"
	default:
		return string(r)
	}
}

// Color returns the badge classes used for the role.
func (r Role) Color() string {
	switch r {
	case RoleDeveloper:
		return "bg-blue-100 text-blue-800"
	case RoleQA:
		return "bg-green-100 text-green-800"
	case RoleProjectManager:
		return "bg-purple-100 text-purple-800"
	case RoleITSecurity:
		return "bg-red-100 text-red-800"
	case RoleCAB:
		return "bg-orange-100 text-orange-800"
	case RoleSupport:
		return "bg-gray-100 text-gray-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

// WelcomeMessage is the dashboard subtitle shown to the role.
func (r Role) WelcomeMessage() string {
	switch r {
	case RoleDeveloper:
		return "Upload your tested code and track deployment progress"
	case RoleQA:
		return "Generate test completion reports and monitor quality metrics"
	case RoleProjectManager:
		return "Oversee project workflows and coordinate with teams"
	case RoleITSecurity:
		return "Perform security assessments and manage vulnerability reports"
	case RoleCAB:
		return "Review and approve deployment requests"
	case RoleSupport:
		return "Deploy approved builds and manage production releases"
	default:
		return "Welcome to the DMP Portal"
	}
}

// QuickAction is a shortcut card on the dashboard.
type QuickAction struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Href        string `json:"href"`
}

// QuickActions returns the dashboard shortcuts offered to the role.
func (r Role) QuickActions() []QuickAction {
	switch r {
	case RoleDeveloper:
		return []QuickAction{
			{Label: "Upload Code", Description: "Submit tested code for review", Href: "/upload"},
			{Label: "View Status", Description: "Track deployment progress", Href: "/notifications"},
		}
	case RoleQA:
		return []QuickAction{
			{Label: "Generate TCR", Description: "Create test completion reports", Href: "/qa"},
			{Label: "Quality Metrics", Description: "View testing statistics", Href: "/metrics"},
		}
	case RoleProjectManager:
		return []QuickAction{
			{Label: "Project Overview", Description: "Monitor all active deployments", Href: "/notifications"},
			{Label: "Notifications", Description: "Manage system notifications", Href: "/notifications"},
		}
	case RoleITSecurity:
		return []QuickAction{
			{Label: "Security Scans", Description: "Perform vulnerability assessments", Href: "/security"},
			{Label: "Security Alerts", Description: "Monitor security notifications", Href: "/notifications"},
		}
	case RoleCAB:
		return []QuickAction{
			{Label: "Review Requests", Description: "Approve deployment requests", Href: "/cab"},
			{Label: "CAB Notifications", Description: "Review approval notifications", Href: "/notifications"},
		}
	case RoleSupport:
		return []QuickAction{
			{Label: "Deploy Builds", Description: "Execute approved deployments", Href: "/deploy"},
			{Label: "Production Status", Description: "Monitor live systems", Href: "/production"},
		}
	default:
		return nil
	}
}
