package store

import (
	"time"

	"attendboard/internal/attendance"
)

// Seed is the initial content of a session.
type Seed struct {
	Participants  []attendance.Participant
	Events        []attendance.Event
	WeeklyClasses []attendance.WeeklyClass
	Records       []attendance.Record
}

// DefaultSeed returns the fixed roster, catalog and records every session
// starts from, with wall-clock times interpreted in loc.
func DefaultSeed(loc *time.Location) Seed {
	if loc == nil {
		loc = time.Local
	}
	at := func(y int, m time.Month, d, hh, mm int) time.Time {
		return time.Date(y, m, d, hh, mm, 0, 0, loc)
	}
	ptr := func(t time.Time) *time.Time { return &t }

	participants := []attendance.Participant{
		{ID: "1", Name: "Ahmad Fauzi", Email: "ahmad@umb.ac.id", Department: "KMP"},
		{ID: "2", Name: "Budi Santoso", Email: "budi@umb.ac.id", Department: "KMP"},
		{ID: "3", Name: "Citra Dewi", Email: "citra@umb.ac.id", Department: "KMP"},
		{ID: "4", Name: "Dewi Lestari", Email: "dewi@umb.ac.id", Department: "KMP"},
		{ID: "5", Name: "Eko Prasetyo", Email: "eko@umb.ac.id", Department: "KMP"},
		{ID: "6", Name: "Fitri Handayani", Email: "fitri@umb.ac.id", Department: "KMP"},
		{ID: "7", Name: "Gunawan Wibowo", Email: "gunawan@umb.ac.id", Department: "KMP"},
		{ID: "8", Name: "Hana Permata", Email: "hana@umb.ac.id", Department: "KMP"},
		{ID: "9", Name: "Indra Kusuma", Email: "indra@umb.ac.id", Department: "KMP"},
		{ID: "10", Name: "Joko Widodo", Email: "joko@umb.ac.id", Department: "KMP"},
		{ID: "11", Name: "Kartika Sari", Email: "kartika@umb.ac.id", Department: "KMP"},
		{ID: "12", Name: "Lina Marlina", Email: "lina@umb.ac.id", Department: "KMP"},
	}

	events := []attendance.Event{
		{
			ID:                "evt-1",
			Name:              "Monthly Team Meeting",
			Description:       "Regular monthly meeting for all staff",
			StartDate:         at(2025, time.November, 20, 9, 0),
			EndDate:           at(2025, time.November, 20, 11, 0),
			AttendanceEnabled: true,
			Type:              attendance.TypeEvent,
		},
		{
			ID:                "evt-2",
			Name:              "Training Workshop",
			Description:       "Professional development workshop",
			StartDate:         at(2025, time.November, 25, 13, 0),
			EndDate:           at(2025, time.November, 25, 16, 0),
			AttendanceEnabled: true,
			Type:              attendance.TypeEvent,
		},
		{
			ID:                "evt-3",
			Name:              "Company Announcement",
			Description:       "Important company-wide announcement",
			StartDate:         at(2025, time.November, 30, 10, 0),
			EndDate:           at(2025, time.November, 30, 10, 30),
			AttendanceEnabled: false,
			Type:              attendance.TypeEvent,
		},
	}

	classes := []attendance.WeeklyClass{
		{
			ID:          "wc-1",
			Name:        "Kelas Mingguan - Week 1",
			Topic:       "Pengenalan Dasar Pemrograman",
			Description: "Pertemuan minggu pertama membahas dasar-dasar pemrograman",
			Date:        at(2025, time.November, 18, 0, 0),
			StartTime:   "14:00",
			EndTime:     "16:00",
			Type:        attendance.TypeWeeklyClass,
		},
		{
			ID:          "wc-2",
			Name:        "Kelas Mingguan - Week 2",
			Topic:       "Struktur Data & Algoritma",
			Description: "Pembahasan struktur data fundamental",
			Date:        at(2025, time.November, 25, 0, 0),
			StartTime:   "14:00",
			EndTime:     "16:00",
			Type:        attendance.TypeWeeklyClass,
		},
		{
			ID:          "wc-3",
			Name:        "Kelas Mingguan - Week 3",
			Topic:       "Database & SQL Dasar",
			Description: "Pengenalan database relasional dan SQL",
			Date:        at(2025, time.December, 2, 0, 0),
			StartTime:   "14:00",
			EndTime:     "16:00",
			Type:        attendance.TypeWeeklyClass,
		},
	}

	rec := func(id, pid, name, eventID string, typ attendance.OccurrenceType, status attendance.Status, checkIn *time.Time) attendance.Record {
		return attendance.Record{
			ID:              id,
			ParticipantID:   pid,
			ParticipantName: name,
			EventID:         eventID,
			EventType:       typ,
			IsPresent:       checkIn != nil,
			Status:          status,
			CheckInTime:     checkIn,
		}
	}
	ev, wc := attendance.TypeEvent, attendance.TypeWeeklyClass
	onTime, late, none := attendance.StatusOnTime, attendance.StatusLate, attendance.StatusNotMarked

	records := []attendance.Record{
		rec("ar-1", "1", "Ahmad Fauzi", "evt-1", ev, onTime, ptr(at(2025, time.November, 20, 8, 55))),
		rec("ar-2", "2", "Budi Santoso", "evt-1", ev, none, nil),
		rec("ar-3", "3", "Citra Dewi", "evt-1", ev, onTime, ptr(at(2025, time.November, 20, 8, 58))),
		rec("ar-4", "4", "Dewi Lestari", "evt-1", ev, late, ptr(at(2025, time.November, 20, 9, 15))),
		rec("ar-5", "5", "Eko Prasetyo", "evt-1", ev, none, nil),
		rec("ar-6", "6", "Fitri Handayani", "evt-1", ev, none, nil),
		rec("ar-7", "7", "Gunawan Wibowo", "evt-1", ev, none, nil),
		rec("ar-8", "8", "Hana Permata", "evt-1", ev, none, nil),
		rec("ar-9", "9", "Indra Kusuma", "evt-1", ev, none, nil),
		rec("ar-10", "10", "Joko Widodo", "evt-1", ev, none, nil),

		rec("ar-11", "1", "Ahmad Fauzi", "wc-1", wc, onTime, ptr(at(2025, time.November, 18, 13, 55))),
		rec("ar-12", "2", "Budi Santoso", "wc-1", wc, onTime, ptr(at(2025, time.November, 18, 13, 58))),
		rec("ar-13", "3", "Citra Dewi", "wc-1", wc, late, ptr(at(2025, time.November, 18, 14, 10))),
		rec("ar-14", "4", "Dewi Lestari", "wc-1", wc, none, nil),
		rec("ar-15", "5", "Eko Prasetyo", "wc-1", wc, onTime, ptr(at(2025, time.November, 18, 13, 50))),
	}

	return Seed{Participants: participants, Events: events, WeeklyClasses: classes, Records: records}
}
