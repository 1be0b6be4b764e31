package auth

import "attendboard/internal/attendance"

// View is a navigable dashboard screen.
type View string

const (
	ViewDashboard      View = "dashboard"
	ViewEvents         View = "events"
	ViewWeeklyClass    View = "weekly-class"
	ViewFillAttendance View = "fill-attendance"
	ViewAbsences       View = "absences"
)

// NavItem describes a view and the roles that may see it.
type NavItem struct {
	View  View              `json:"view"`
	Title string            `json:"title"`
	Path  string            `json:"path"`
	Roles []attendance.Role `json:"-"`
}

var navItems = []NavItem{
	{View: ViewDashboard, Title: "Dashboard", Path: "/", Roles: []attendance.Role{attendance.RoleHR}},
	{View: ViewEvents, Title: "Events", Path: "/events", Roles: []attendance.Role{attendance.RoleHR}},
	{View: ViewWeeklyClass, Title: "Weekly Class", Path: "/weekly-class", Roles: []attendance.Role{attendance.RoleHR}},
	{View: ViewFillAttendance, Title: "Fill Attendance", Path: "/fill-attendance", Roles: []attendance.Role{attendance.RoleHR, attendance.RoleDutyOfficer}},
	{View: ViewAbsences, Title: "View Absences", Path: "/absences", Roles: []attendance.Role{attendance.RoleHR}},
}

// Allowed reports whether role may see view.
func Allowed(view View, role attendance.Role) bool {
	for _, item := range navItems {
		if item.View != view {
			continue
		}
		for _, r := range item.Roles {
			if r == role {
				return true
			}
		}
		return false
	}
	return false
}

// Navigation lists the views visible to role in menu order.
func Navigation(role attendance.Role) []NavItem {
	var out []NavItem
	for _, item := range navItems {
		if Allowed(item.View, role) {
			out = append(out, item)
		}
	}
	return out
}
