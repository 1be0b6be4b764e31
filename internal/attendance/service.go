package attendance

import (
	"errors"
	"time"
)

// ErrOccurrenceNotFound is returned for unknown or non-attendable occurrence ids.
var ErrOccurrenceNotFound = errors.New("occurrence not found")

// Source is the read side of a session store.
type Source interface {
	Participants() []Participant
	Events() []Event
	WeeklyClasses() []WeeklyClass
	AttendanceRecords() []Record
}

// Service derives reports from a Source. Nothing is cached: every call reads a
// fresh snapshot.
type Service struct {
	src Source
	now func() time.Time
}

// NewService creates a report service over src.
func NewService(src Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{src: src, now: now}
}

// Occurrences lists the attendable occurrences.
func (s *Service) Occurrences() []Occurrence {
	return ListAttendableOccurrences(s.src.Events(), s.src.WeeklyClasses())
}

// Occurrence looks up one attendable occurrence.
func (s *Service) Occurrence(id string) (Occurrence, error) {
	occ, ok := FindOccurrence(s.Occurrences(), id)
	if !ok {
		return Occurrence{}, ErrOccurrenceNotFound
	}
	return occ, nil
}

// Summaries is the per-occurrence table.
func (s *Service) Summaries() []Summary {
	return SummarizeAll(s.Occurrences(), s.src.AttendanceRecords(), s.src.Participants())
}

// SummariesFor summarizes occs in order against the current records.
func (s *Service) SummariesFor(occs []Occurrence) []Summary {
	return SummarizeAll(occs, s.src.AttendanceRecords(), s.src.Participants())
}

// Summary returns the summary of one occurrence.
func (s *Service) Summary(id string) (Summary, error) {
	occ, err := s.Occurrence(id)
	if err != nil {
		return Summary{}, err
	}
	return SummarizeEvent(occ, s.src.AttendanceRecords(), s.src.Participants()), nil
}

// Roster is the full participant drill-down for one occurrence.
func (s *Service) Roster(id string) (Occurrence, []RosterRow, error) {
	occ, err := s.Occurrence(id)
	if err != nil {
		return Occurrence{}, nil, err
	}
	return occ, Roster(occ.ID, s.src.AttendanceRecords(), s.src.Participants()), nil
}

// Individuals is the cumulative per-participant report.
func (s *Service) Individuals() []IndividualAttendance {
	return SummarizeIndividuals(s.src.Participants(), s.src.AttendanceRecords())
}

// BelowThreshold lists participants with at least one record whose cumulative
// attendance is under Threshold.
func (s *Service) BelowThreshold() []IndividualAttendance {
	var out []IndividualAttendance
	for _, ind := range s.Individuals() {
		if ind.TotalEvents > 0 && ind.IsBelowThreshold {
			out = append(out, ind)
		}
	}
	return out
}

// Monthly is the month-over-month trend limited to the last months entries.
func (s *Service) Monthly(months int) []MonthlyAttendance {
	return MonthlyTrend(s.Occurrences(), s.src.AttendanceRecords(), s.src.Participants(), months)
}

// Dashboard computes the dashboard stat cards.
func (s *Service) Dashboard() DashboardStats {
	return Dashboard(s.src.Events(), s.src.WeeklyClasses(), s.src.AttendanceRecords(), s.src.Participants(), s.now())
}
