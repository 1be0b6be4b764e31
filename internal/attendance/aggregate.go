package attendance

import (
	"sort"
	"time"
)

// Percentage returns part/total as a whole percentage rounded half up.
// A zero total yields 0.
func Percentage(part, total int) int {
	return roundDiv(100*part, total)
}

// BelowThreshold reports whether a percentage is under the alert cutoff.
// Exactly Threshold is not below it.
func BelowThreshold(pct int) bool {
	return pct < Threshold
}

// roundDiv divides non-negative n by d rounding half up.
func roundDiv(n, d int) int {
	if d <= 0 {
		return 0
	}
	return (2*n + d) / (2 * d)
}

// SummarizeEvent counts present records for occ among records. Everyone on the
// roster without a present record counts as absent, whether or not a record exists.
func SummarizeEvent(occ Occurrence, records []Record, participants []Participant) Summary {
	present := 0
	for _, r := range records {
		if r.EventID == occ.ID && r.IsPresent {
			present++
		}
	}
	total := len(participants)
	return Summary{
		EventID:              occ.ID,
		EventName:            occ.Name,
		EventDescription:     occ.Description,
		EventDate:            occ.Date,
		EventType:            occ.Type,
		TotalParticipants:    total,
		PresentCount:         present,
		AbsentCount:          total - present,
		AttendancePercentage: Percentage(present, total),
	}
}

// SummarizeAll summarizes each occurrence in order.
func SummarizeAll(occs []Occurrence, records []Record, participants []Participant) []Summary {
	out := make([]Summary, 0, len(occs))
	for _, occ := range occs {
		out = append(out, SummarizeEvent(occ, records, participants))
	}
	return out
}

// SummarizeIndividual rolls up every record that belongs to p. TotalEvents is the
// number of such records, not the size of the event catalog.
func SummarizeIndividual(p Participant, records []Record) IndividualAttendance {
	var total, present int
	for _, r := range records {
		if r.ParticipantID != p.ID {
			continue
		}
		total++
		if r.IsPresent {
			present++
		}
	}
	pct := Percentage(present, total)
	return IndividualAttendance{
		ParticipantID:        p.ID,
		ParticipantName:      p.Name,
		TotalEvents:          total,
		PresentCount:         present,
		AbsentCount:          total - present,
		AttendancePercentage: pct,
		IsBelowThreshold:     BelowThreshold(pct),
	}
}

// SummarizeIndividuals returns one rollup per participant in roster order.
func SummarizeIndividuals(participants []Participant, records []Record) []IndividualAttendance {
	out := make([]IndividualAttendance, 0, len(participants))
	for _, p := range participants {
		out = append(out, SummarizeIndividual(p, records))
	}
	return out
}

// EventOccurrence views an event as an occurrence.
func EventOccurrence(e Event) Occurrence {
	return Occurrence{ID: e.ID, Name: e.Name, Description: e.Description, Date: e.StartDate, Type: TypeEvent}
}

// ClassOccurrence views a weekly class as an occurrence. The topic stands in
// for the description.
func ClassOccurrence(c WeeklyClass) Occurrence {
	return Occurrence{ID: c.ID, Name: c.Name, Description: c.Topic, Date: c.Date, Type: TypeWeeklyClass}
}

// ListAttendableOccurrences merges attendance-enabled events followed by all
// weekly classes, each group in its original order.
func ListAttendableOccurrences(events []Event, classes []WeeklyClass) []Occurrence {
	out := make([]Occurrence, 0, len(events)+len(classes))
	for _, e := range events {
		if e.AttendanceEnabled {
			out = append(out, EventOccurrence(e))
		}
	}
	for _, c := range classes {
		out = append(out, ClassOccurrence(c))
	}
	return out
}

// FindOccurrence returns the occurrence with id from occs.
func FindOccurrence(occs []Occurrence, id string) (Occurrence, bool) {
	for _, occ := range occs {
		if occ.ID == id {
			return occ, true
		}
	}
	return Occurrence{}, false
}

// Roster lists every participant with their record for occurrenceID, or the
// default absent row when none exists.
func Roster(occurrenceID string, records []Record, participants []Participant) []RosterRow {
	byParticipant := make(map[string]Record)
	for _, r := range records {
		if r.EventID != occurrenceID {
			continue
		}
		if _, seen := byParticipant[r.ParticipantID]; !seen {
			byParticipant[r.ParticipantID] = r
		}
	}
	rows := make([]RosterRow, 0, len(participants))
	for _, p := range participants {
		row := RosterRow{ParticipantID: p.ID, ParticipantName: p.Name, Status: StatusNotMarked}
		if r, ok := byParticipant[p.ID]; ok {
			row.IsPresent = r.IsPresent
			if r.Status != "" {
				row.Status = r.Status
			}
			row.CheckInTime = r.CheckInTime
		}
		rows = append(rows, row)
	}
	return rows
}

// MonthlyTrend groups occurrences by calendar month and reports the share of
// roster seats filled in each month, oldest first. Only the last months entries
// are kept when months > 0.
func MonthlyTrend(occs []Occurrence, records []Record, participants []Participant, months int) []MonthlyAttendance {
	type bucket struct {
		start   time.Time
		count   int
		present int
	}
	buckets := make(map[string]*bucket)
	for _, occ := range occs {
		key := occ.Date.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: time.Date(occ.Date.Year(), occ.Date.Month(), 1, 0, 0, 0, 0, occ.Date.Location())}
			buckets[key] = b
		}
		b.count++
		b.present += SummarizeEvent(occ, records, participants).PresentCount
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })
	if months > 0 && len(ordered) > months {
		ordered = ordered[len(ordered)-months:]
	}

	out := make([]MonthlyAttendance, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, MonthlyAttendance{
			Month:       b.start.Format("Jan 2006"),
			Percentage:  Percentage(b.present, b.count*len(participants)),
			TotalEvents: b.count,
		})
	}
	return out
}

// Dashboard computes the stat cards. CurrentMonth is the trend entry for the
// month of now, falling back to the latest month with occurrences.
func Dashboard(events []Event, classes []WeeklyClass, records []Record, participants []Participant, now time.Time) DashboardStats {
	occs := ListAttendableOccurrences(events, classes)
	summaries := SummarizeAll(occs, records, participants)

	sum := 0
	for _, s := range summaries {
		sum += s.AttendancePercentage
	}

	stats := DashboardStats{
		TotalOccurrences:  len(events) + len(classes),
		WeeklyClasses:     len(classes),
		AverageAttendance: roundDiv(sum, len(summaries)),
		TotalParticipants: len(participants),
	}

	trend := MonthlyTrend(occs, records, participants, 0)
	if len(trend) > 0 {
		current := trend[len(trend)-1]
		label := now.Format("Jan 2006")
		for _, m := range trend {
			if m.Month == label {
				current = m
				break
			}
		}
		stats.CurrentMonth = &current
	}
	return stats
}
