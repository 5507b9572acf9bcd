// Package access decides which portal pages a role may see.
//
// The gate is cosmetic: roles are self-selected at sign-in and nothing here
// should be mistaken for authorization.
package access

import (
	"fmt"
	"slices"

	"deployment-portal/backend/pkg/models"
)

// RestrictedTitle heads every access denial.
const RestrictedTitle = "Access Restricted"

// Page names a gated area of the portal.
type Page string

const (
	PageDashboard     Page = "dashboard"
	PageUpload        Page = "upload"
	PageCAB           Page = "cab"
	PageSecurity      Page = "security"
	PageNotifications Page = "notifications"
)

// Gate restricts a page to a set of roles. A gate with no allowed roles
// admits everyone.
type Gate struct {
	Page Page
	// Audience describes the allowed roles in the denial message.
	Audience string
	Allowed  []models.Role
}

// Decision is the outcome of checking a user against a gate.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Allows reports whether role may see the page.
func (g Gate) Allows(role models.Role) bool {
	if len(g.Allowed) == 0 {
		return true
	}
	return slices.Contains(g.Allowed, role)
}

// Check evaluates the gate for role. Denials name the role verbatim.
func (g Gate) Check(role models.Role) Decision {
	if g.Allows(role) {
		return Decision{Allowed: true}
	}
	return Decision{
		Title:   RestrictedTitle,
		Message: fmt.Sprintf("This page is only available to %s. Your current role is: %s", g.Audience, string(role)),
	}
}

var (
	Dashboard = Gate{Page: PageDashboard}
	Upload    = Gate{
		Page:     PageUpload,
		Audience: "developers",
		Allowed:  []models.Role{models.RoleDeveloper},
	}
	CAB = Gate{
		Page:     PageCAB,
		Audience: "Change Advisory Board members",
		Allowed:  []models.Role{models.RoleCAB},
	}
	Security = Gate{
		Page:     PageSecurity,
		Audience: "IT Security team members",
		Allowed:  []models.Role{models.RoleITSecurity},
	}
	Notifications = Gate{
		Page:     PageNotifications,
		Audience: "Project Managers, IT Security, and CAB members",
		Allowed:  []models.Role{models.RoleProjectManager, models.RoleITSecurity, models.RoleCAB},
	}
)

// Gates lists every gate in navigation order.
var Gates = []Gate{Dashboard, Upload, CAB, Security, Notifications}

// ForPage returns the gate guarding p.
func ForPage(p Page) (Gate, bool) {
	switch p {
	case PageDashboard:
		return Dashboard, true
	case PageUpload:
		return Upload, true
	case PageCAB:
		return CAB, true
	case PageSecurity:
		return Security, true
	case PageNotifications:
		return Notifications, true
	default:
		return Gate{}, false
	}
}
