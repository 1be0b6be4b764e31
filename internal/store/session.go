package store

import (
	"errors"
	"sync"

	"attendboard/internal/attendance"
)

// ErrUnknownRole is returned when switching to a role outside the known set.
var ErrUnknownRole = errors.New("unknown role")

// Store holds one session's role, catalog and attendance records. All reads
// return copies.
type Store struct {
	mu           sync.RWMutex
	role         attendance.Role
	participants []attendance.Participant
	events       []attendance.Event
	classes      []attendance.WeeklyClass
	records      []attendance.Record
}

// New creates a store populated from seed with the HR role active.
func New(seed Seed) *Store {
	return &Store{
		role:         attendance.RoleHR,
		participants: append([]attendance.Participant(nil), seed.Participants...),
		events:       append([]attendance.Event(nil), seed.Events...),
		classes:      append([]attendance.WeeklyClass(nil), seed.WeeklyClasses...),
		records:      append([]attendance.Record(nil), seed.Records...),
	}
}

// Role returns the active role.
func (s *Store) Role() attendance.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// SetRole switches the active role.
func (s *Store) SetRole(role attendance.Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	s.mu.Lock()
	s.role = role
	s.mu.Unlock()
	return nil
}

// Participants returns the roster.
func (s *Store) Participants() []attendance.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.Participant(nil), s.participants...)
}

// Events returns the events in order of first appearance.
func (s *Store) Events() []attendance.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.Event(nil), s.events...)
}

// WeeklyClasses returns the weekly classes in order of first appearance.
func (s *Store) WeeklyClasses() []attendance.WeeklyClass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.WeeklyClass(nil), s.classes...)
}

// AttendanceRecords returns all attendance records.
func (s *Store) AttendanceRecords() []attendance.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]attendance.Record(nil), s.records...)
}

// Event looks up an event by id.
func (s *Store) Event(id string) (attendance.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return attendance.Event{}, false
}

// WeeklyClass looks up a weekly class by id.
func (s *Store) WeeklyClass(id string) (attendance.WeeklyClass, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.classes {
		if c.ID == id {
			return c, true
		}
	}
	return attendance.WeeklyClass{}, false
}

// UpsertEvent appends e if its id is new, otherwise replaces the entry in place.
// It reports whether e was inserted.
func (s *Store) UpsertEvent(e attendance.Event) bool {
	e.Type = attendance.TypeEvent
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == e.ID {
			s.events[i] = e
			return false
		}
	}
	s.events = append(s.events, e)
	return true
}

// UpsertWeeklyClass appends c if its id is new, otherwise replaces the entry in
// place. It reports whether c was inserted.
func (s *Store) UpsertWeeklyClass(c attendance.WeeklyClass) bool {
	c.Type = attendance.TypeWeeklyClass
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.classes {
		if s.classes[i].ID == c.ID {
			s.classes[i] = c
			return false
		}
	}
	s.classes = append(s.classes, c)
	return true
}

// ReplaceRecordsForEvent drops every record of eventID and appends records.
// This is a full overwrite: records of eventID missing from records are gone.
func (s *Store) ReplaceRecordsForEvent(eventID string, records []attendance.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]attendance.Record, 0, len(s.records)+len(records))
	for _, r := range s.records {
		if r.EventID != eventID {
			kept = append(kept, r)
		}
	}
	s.records = append(kept, records...)
}
