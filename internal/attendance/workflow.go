package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Workflow errors.
var (
	ErrNoSelection        = errors.New("no occurrence selected")
	ErrUnknownParticipant = errors.New("participant not in working set")
	ErrRowAbsent          = errors.New("participant is marked absent")
	ErrInvalidStatus      = errors.New("invalid attendance status")
	ErrInvalidTime        = errors.New("check-in time must be HH:MM")
)

const timeOfDayLayout = "15:04"

// WorkflowState is the state of the entry workflow.
type WorkflowState string

const (
	StateUnselected WorkflowState = "unselected"
	StateEditing    WorkflowState = "editing"
)

// WorkingRow is the unsaved attendance of one participant.
// CheckInTime is a "HH:MM" time of day, empty when unset.
type WorkingRow struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	IsPresent       bool   `json:"is_present"`
	Status          Status `json:"status"`
	CheckInTime     string `json:"check_in_time"`
}

// RecordSink receives the committed records of an occurrence.
type RecordSink interface {
	ReplaceRecordsForEvent(eventID string, records []Record)
}

// Workflow is the fill-attendance screen for a single occurrence. It is not
// safe for concurrent use.
type Workflow struct {
	now      func() time.Time
	selected *Occurrence
	rows     []WorkingRow
}

// NewWorkflow returns an unselected workflow. A nil now uses time.Now.
func NewWorkflow(now func() time.Time) *Workflow {
	if now == nil {
		now = time.Now
	}
	return &Workflow{now: now}
}

// State reports the current workflow state.
func (w *Workflow) State() WorkflowState {
	if w.selected == nil {
		return StateUnselected
	}
	return StateEditing
}

// Selected returns the occurrence being edited.
func (w *Workflow) Selected() (Occurrence, bool) {
	if w.selected == nil {
		return Occurrence{}, false
	}
	return *w.selected, true
}

// Select enters editing for occ, loading one working row per participant from
// its existing record or a default absent row.
func (w *Workflow) Select(occ Occurrence, participants []Participant, records []Record) {
	existing := make(map[string]Record)
	for _, r := range records {
		if r.EventID != occ.ID {
			continue
		}
		if _, seen := existing[r.ParticipantID]; !seen {
			existing[r.ParticipantID] = r
		}
	}

	rows := make([]WorkingRow, 0, len(participants))
	for _, p := range participants {
		row := WorkingRow{ParticipantID: p.ID, ParticipantName: p.Name, Status: StatusNotMarked}
		if r, ok := existing[p.ID]; ok {
			row.IsPresent = r.IsPresent
			if r.Status != "" {
				row.Status = r.Status
			}
			if r.CheckInTime != nil {
				row.CheckInTime = r.CheckInTime.Format(timeOfDayLayout)
			}
		}
		rows = append(rows, row)
	}

	w.selected = &occ
	w.rows = rows
}

// Refresh replaces the selected occurrence with its current version so that
// later edits to its name or date reach the saved records. The id must match.
func (w *Workflow) Refresh(occ Occurrence) error {
	if w.selected == nil {
		return ErrNoSelection
	}
	if occ.ID != w.selected.ID {
		return fmt.Errorf("refresh %s: selected occurrence is %s", occ.ID, w.selected.ID)
	}
	w.selected = &occ
	return nil
}

// Back discards the working set and returns to the pick list.
func (w *Workflow) Back() {
	w.selected = nil
	w.rows = nil
}

// Rows returns the working rows whose name contains filter, case-insensitively.
func (w *Workflow) Rows(filter string) ([]WorkingRow, error) {
	if w.selected == nil {
		return nil, ErrNoSelection
	}
	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]WorkingRow, 0, len(w.rows))
	for _, row := range w.rows {
		if needle == "" || strings.Contains(strings.ToLower(row.ParticipantName), needle) {
			out = append(out, row)
		}
	}
	return out, nil
}

// PresentCount counts present rows in the whole working set.
func (w *Workflow) PresentCount() int {
	n := 0
	for _, row := range w.rows {
		if row.IsPresent {
			n++
		}
	}
	return n
}

// SetPresence toggles one participant. Marking present sets status On time and
// stamps the current time of day unless a check-in time is already set. Marking
// absent resets status and clears the check-in time.
func (w *Workflow) SetPresence(participantID string, present bool) (WorkingRow, error) {
	row, err := w.row(participantID)
	if err != nil {
		return WorkingRow{}, err
	}
	if present {
		w.markPresent(row)
	} else {
		row.IsPresent = false
		row.Status = StatusNotMarked
		row.CheckInTime = ""
	}
	return *row, nil
}

// MarkAllPresent marks every row present, keeping check-in times already set.
func (w *Workflow) MarkAllPresent() error {
	if w.selected == nil {
		return ErrNoSelection
	}
	for i := range w.rows {
		w.markPresent(&w.rows[i])
	}
	return nil
}

func (w *Workflow) markPresent(row *WorkingRow) {
	row.IsPresent = true
	row.Status = StatusOnTime
	if row.CheckInTime == "" {
		row.CheckInTime = w.now().Format(timeOfDayLayout)
	}
}

// SetStatus changes the status of a present participant.
func (w *Workflow) SetStatus(participantID string, status Status) (WorkingRow, error) {
	if !status.Valid() {
		return WorkingRow{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	row, err := w.row(participantID)
	if err != nil {
		return WorkingRow{}, err
	}
	if !row.IsPresent {
		return WorkingRow{}, ErrRowAbsent
	}
	row.Status = status
	return *row, nil
}

// SetCheckInTime edits the check-in time of a present participant. An empty
// value clears it.
func (w *Workflow) SetCheckInTime(participantID, value string) (WorkingRow, error) {
	value = strings.TrimSpace(value)
	if value != "" {
		t, err := time.Parse(timeOfDayLayout, value)
		if err != nil {
			return WorkingRow{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
		}
		value = t.Format(timeOfDayLayout)
	}
	row, err := w.row(participantID)
	if err != nil {
		return WorkingRow{}, err
	}
	if !row.IsPresent {
		return WorkingRow{}, ErrRowAbsent
	}
	row.CheckInTime = value
	return *row, nil
}

// Records builds the records Save would commit, one per working row.
func (w *Workflow) Records() ([]Record, error) {
	if w.selected == nil {
		return nil, ErrNoSelection
	}
	occ := *w.selected
	out := make([]Record, 0, len(w.rows))
	for _, row := range w.rows {
		rec := Record{
			ID:              RecordID(occ.ID, row.ParticipantID),
			ParticipantID:   row.ParticipantID,
			ParticipantName: row.ParticipantName,
			EventID:         occ.ID,
			EventType:       occ.Type,
			IsPresent:       row.IsPresent,
			Status:          row.Status,
		}
		if row.CheckInTime != "" {
			if at, ok := onDate(occ.Date, row.CheckInTime); ok {
				rec.CheckInTime = &at
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save overwrites every record of the selected occurrence with the working set.
// Rows never touched are written as absent. The workflow stays in editing.
func (w *Workflow) Save(sink RecordSink) ([]Record, error) {
	records, err := w.Records()
	if err != nil {
		return nil, err
	}
	sink.ReplaceRecordsForEvent(w.selected.ID, records)
	return records, nil
}

func (w *Workflow) row(participantID string) (*WorkingRow, error) {
	if w.selected == nil {
		return nil, ErrNoSelection
	}
	for i := range w.rows {
		if w.rows[i].ParticipantID == participantID {
			return &w.rows[i], nil
		}
	}
	return nil, ErrUnknownParticipant
}

// RecordID is the deterministic id of a participant's record for an occurrence.
func RecordID(occurrenceID, participantID string) string {
	return "ar-" + occurrenceID + "-" + participantID
}

// onDate places an HH:MM time of day on the calendar date of day.
func onDate(day time.Time, hhmm string) (time.Time, bool) {
	t, err := time.Parse(timeOfDayLayout, hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}
