package attendance

import "time"

// Threshold is the cumulative attendance percentage below which a participant is flagged.
const Threshold = 75

// Role is the active dashboard role of a session.
type Role string

const (
	RoleHR          Role = "HR"
	RoleDutyOfficer Role = "DutyOfficer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleHR || r == RoleDutyOfficer
}

// OccurrenceType distinguishes events from weekly class sessions.
type OccurrenceType string

const (
	TypeEvent       OccurrenceType = "event"
	TypeWeeklyClass OccurrenceType = "weekly-class"
)

// Status is the per-participant attendance status.
type Status string

const (
	StatusOnTime    Status = "On time"
	StatusLate      Status = "Late"
	StatusNotMarked Status = "Not Marked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOnTime, StatusLate, StatusNotMarked:
		return true
	}
	return false
}

// Participant is a member of the fixed roster.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// Event is a one-off organizational event.
type Event struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	AttendanceEnabled bool           `json:"attendance_enabled"`
	Type              OccurrenceType `json:"type"`
}

// WeeklyClass is a single session of the recurring weekly class.
// StartTime and EndTime are "HH:MM" times of day on Date.
type WeeklyClass struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Topic       string         `json:"topic"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	Type        OccurrenceType `json:"type"`
}

// Record is the attendance of one participant at one occurrence.
type Record struct {
	ID              string         `json:"id"`
	ParticipantID   string         `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	EventID         string         `json:"event_id"`
	EventType       OccurrenceType `json:"event_type"`
	IsPresent       bool           `json:"is_present"`
	Status          Status         `json:"status"`
	CheckInTime     *time.Time     `json:"check_in_time,omitempty"`
}

// Occurrence is an event or weekly class viewed uniformly for attendance.
type Occurrence struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	Type        OccurrenceType `json:"type"`
}

// Summary is the per-occurrence rollup.
type Summary struct {
	EventID              string         `json:"event_id"`
	EventName            string         `json:"event_name"`
	EventDescription     string         `json:"event_description"`
	EventDate            time.Time      `json:"event_date"`
	EventType            OccurrenceType `json:"event_type"`
	TotalParticipants    int            `json:"total_participants"`
	PresentCount         int            `json:"present_count"`
	AbsentCount          int            `json:"absent_count"`
	AttendancePercentage int            `json:"attendance_percentage"`
}

// IndividualAttendance is the cumulative rollup for one participant.
type IndividualAttendance struct {
	ParticipantID        string `json:"participant_id"`
	ParticipantName      string `json:"participant_name"`
	TotalEvents          int    `json:"total_events"`
	PresentCount         int    `json:"present_count"`
	AbsentCount          int    `json:"absent_count"`
	AttendancePercentage int    `json:"attendance_percentage"`
	IsBelowThreshold     bool   `json:"is_below_threshold"`
}

// MonthlyAttendance is one point of the month-over-month trend.
type MonthlyAttendance struct {
	Month       string `json:"month"`
	Percentage  int    `json:"percentage"`
	TotalEvents int    `json:"total_events"`
}

// RosterRow is one participant's line in an occurrence drill-down or export.
type RosterRow struct {
	ParticipantID   string     `json:"participant_id"`
	ParticipantName string     `json:"participant_name"`
	IsPresent       bool       `json:"is_present"`
	Status          Status     `json:"status"`
	CheckInTime     *time.Time `json:"check_in_time,omitempty"`
}

// DashboardStats backs the dashboard stat cards.
type DashboardStats struct {
	TotalOccurrences  int                `json:"total_occurrences"`
	WeeklyClasses     int                `json:"weekly_classes"`
	AverageAttendance int                `json:"average_attendance"`
	TotalParticipants int                `json:"total_participants"`
	CurrentMonth      *MonthlyAttendance `json:"current_month,omitempty"`
}
