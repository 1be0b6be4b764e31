package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attendboard/internal/attendance"
	"attendboard/internal/queue"
	"attendboard/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, time.November, 25, 14, 5, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	alerts *queue.InMemory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	now := func() time.Time { return testNow }
	sessions := store.NewRegistry(time.Hour, func() store.Seed { return store.DefaultSeed(time.UTC) }, now)
	alerts := queue.NewInMemory(16)
	h := New(sessions, alerts, nil, Options{
		SigningKey: "test-key",
		Issuer:     "attendboard-test",
		TokenTTL:   time.Hour,
		Location:   time.UTC,
		Now:        now,
	})
	return &testServer{
		router: h.Router(RouterOptions{AllowOrigins: []string{"http://localhost:5173"}}),
		alerts: alerts,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, role attendance.Role) string {
	t.Helper()
	var body any
	if role != "" {
		body = map[string]string{"role": string(role)}
	}
	w := s.do(t, http.MethodPost, "/api/sessions", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expect(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d: %s", w.Code, code, w.Body.String())
	}
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t)
	expect(t, s.do(t, http.MethodGet, "/api/session", "", nil), http.StatusUnauthorized)
	expect(t, s.do(t, http.MethodGet, "/api/dashboard", "garbage", nil), http.StatusUnauthorized)
	expect(t, s.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestCreateSessionNavigation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/sessions", "", nil)
	expect(t, w, http.StatusCreated)

	var resp struct {
		Role       attendance.Role `json:"role"`
		Navigation []struct {
			View string `json:"view"`
		} `json:"navigation"`
	}
	decode(t, w, &resp)
	if resp.Role != attendance.RoleHR || len(resp.Navigation) != 5 {
		t.Fatalf("session = %+v", resp)
	}

	w = s.do(t, http.MethodPost, "/api/sessions", "", map[string]string{"role": "Admin"})
	expect(t, w, http.StatusBadRequest)
}

func TestRoleGating(t *testing.T) {
	s := newTestServer(t)
	duty := s.login(t, attendance.RoleDutyOfficer)
	hr := s.login(t, attendance.RoleHR)

	hrOnly := []string{"/api/dashboard", "/api/events", "/api/weekly-classes", "/api/reports/occurrences", "/api/reports/individuals"}
	for _, path := range hrOnly {
		t.Run(path, func(t *testing.T) {
			expect(t, s.do(t, http.MethodGet, path, duty, nil), http.StatusForbidden)
			expect(t, s.do(t, http.MethodGet, path, hr, nil), http.StatusOK)
		})
	}
	expect(t, s.do(t, http.MethodGet, "/api/attendance/occurrences", duty, nil), http.StatusOK)
	expect(t, s.do(t, http.MethodGet, "/api/attendance/occurrences", hr, nil), http.StatusOK)
}

func TestRoleSwitchAppliesImmediately(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")
	expect(t, s.do(t, http.MethodGet, "/api/dashboard", token, nil), http.StatusOK)

	expect(t, s.do(t, http.MethodPut, "/api/session/role", token, map[string]string{"role": "DutyOfficer"}), http.StatusOK)
	expect(t, s.do(t, http.MethodGet, "/api/dashboard", token, nil), http.StatusForbidden)

	expect(t, s.do(t, http.MethodPut, "/api/session/role", token, map[string]string{"role": "Admin"}), http.StatusBadRequest)
	expect(t, s.do(t, http.MethodPut, "/api/session/role", token, map[string]string{"role": "HR"}), http.StatusOK)
	expect(t, s.do(t, http.MethodGet, "/api/dashboard", token, nil), http.StatusOK)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	a := s.login(t, "")
	b := s.login(t, "")

	w := s.do(t, http.MethodPost, "/api/events", a, map[string]any{
		"name": "Offsite", "start_date": "2025-12-10", "start_time": "09:00",
		"end_date": "2025-12-10", "end_time": "17:00",
	})
	expect(t, w, http.StatusCreated)

	var list struct {
		Events []attendance.Event `json:"events"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/events", b, nil), &list)
	if len(list.Events) != 3 {
		t.Fatalf("other session sees %d events, want 3", len(list.Events))
	}
}

func TestEventUpsert(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	w := s.do(t, http.MethodPost, "/api/events", token, map[string]any{
		"name": "Offsite", "description": "Planning", "start_date": "2025-12-10", "start_time": "09:00",
		"end_date": "2025-12-10", "end_time": "17:00",
	})
	expect(t, w, http.StatusCreated)
	var created struct {
		Event   attendance.Event `json:"event"`
		Message string           `json:"message"`
	}
	decode(t, w, &created)
	if !strings.HasPrefix(created.Event.ID, "evt-") || !created.Event.AttendanceEnabled || created.Message != "Event created successfully" {
		t.Fatalf("created = %+v", created)
	}

	w = s.do(t, http.MethodPut, "/api/events/evt-3", token, map[string]any{
		"name": "Announcement", "start_date": "2025-11-30", "start_time": "10:00",
		"end_date": "2025-11-30", "end_time": "10:30",
	})
	expect(t, w, http.StatusOK)
	var updated struct {
		Event attendance.Event `json:"event"`
	}
	decode(t, w, &updated)
	if updated.Event.AttendanceEnabled {
		t.Fatal("update without attendance_enabled changed the flag")
	}

	var list struct {
		Events []attendance.Event `json:"events"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/events", token, nil), &list)
	if len(list.Events) != 4 || list.Events[2].Name != "Announcement" || list.Events[3].ID != created.Event.ID {
		t.Fatalf("events = %+v", list.Events)
	}

	expect(t, s.do(t, http.MethodPut, "/api/events/evt-missing", token, map[string]any{
		"name": "x", "start_date": "2025-11-30", "start_time": "10:00", "end_date": "2025-11-30", "end_time": "10:30",
	}), http.StatusNotFound)
	expect(t, s.do(t, http.MethodPost, "/api/events", token, map[string]any{
		"name": "x", "start_date": "30/11/2025", "start_time": "10:00", "end_date": "2025-11-30", "end_time": "10:30",
	}), http.StatusBadRequest)
	expect(t, s.do(t, http.MethodPost, "/api/events", token, map[string]any{"description": "no name"}), http.StatusBadRequest)
}

func TestWeeklyClassUpsert(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	w := s.do(t, http.MethodPost, "/api/weekly-classes", token, map[string]any{
		"name": "Kelas Mingguan - Week 4", "topic": "Testing", "date": "2025-12-09", "start_time": "14:00", "end_time": "16:00",
	})
	expect(t, w, http.StatusCreated)
	var created struct {
		WeeklyClass attendance.WeeklyClass `json:"weekly_class"`
	}
	decode(t, w, &created)
	if !strings.HasPrefix(created.WeeklyClass.ID, "wc-") || created.WeeklyClass.Type != attendance.TypeWeeklyClass {
		t.Fatalf("created = %+v", created.WeeklyClass)
	}

	expect(t, s.do(t, http.MethodPost, "/api/weekly-classes", token, map[string]any{
		"name": "bad", "date": "2025-12-09", "start_time": "2pm", "end_time": "16:00",
	}), http.StatusBadRequest)
	expect(t, s.do(t, http.MethodPut, "/api/weekly-classes/wc-1", token, map[string]any{
		"name": "Week 1", "topic": "Renamed", "date": "2025-11-18", "start_time": "14:00", "end_time": "16:00",
	}), http.StatusOK)

	var occs struct {
		Occurrences []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		} `json:"occurrences"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/attendance/occurrences", token, nil), &occs)
	if len(occs.Occurrences) != 6 || occs.Occurrences[2].Description != "Renamed" {
		t.Fatalf("occurrences = %+v", occs.Occurrences)
	}
}

func TestFillAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, attendance.RoleDutyOfficer)

	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/save", token, nil), http.StatusConflict)
	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/select", token, map[string]string{"occurrence_id": "evt-3"}), http.StatusNotFound)

	w := s.do(t, http.MethodPost, "/api/attendance/workflow/select", token, map[string]string{"occurrence_id": "wc-1"})
	expect(t, w, http.StatusOK)
	var view struct {
		State        string                  `json:"state"`
		Rows         []attendance.WorkingRow `json:"rows"`
		PresentCount int                     `json:"present_count"`
		Total        int                     `json:"total"`
	}
	decode(t, w, &view)
	if view.State != "editing" || view.Total != 12 || view.PresentCount != 4 {
		t.Fatalf("view = state %s total %d present %d", view.State, view.Total, view.PresentCount)
	}

	decode(t, s.do(t, http.MethodGet, "/api/attendance/workflow?q=dewi", token, nil), &view)
	if len(view.Rows) != 2 || view.PresentCount != 4 {
		t.Fatalf("filtered rows = %d present %d", len(view.Rows), view.PresentCount)
	}

	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/6/status", token, map[string]string{"status": "Late"}), http.StatusConflict)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/99/presence", token, map[string]bool{"present": true}), http.StatusNotFound)

	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/mark-all-present", token, nil), http.StatusOK)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/4/presence", token, map[string]bool{"present": false}), http.StatusOK)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/6/status", token, map[string]string{"status": "Late"}), http.StatusOK)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/6/status", token, map[string]string{"status": "Excused"}), http.StatusBadRequest)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/6/check-in", token, map[string]string{"check_in_time": "9am"}), http.StatusBadRequest)

	w = s.do(t, http.MethodPut, "/api/attendance/workflow/rows/6/check-in", token, map[string]string{"check_in_time": "14:20"})
	expect(t, w, http.StatusOK)
	var edit struct {
		Row          attendance.WorkingRow `json:"row"`
		PresentCount int                   `json:"present_count"`
	}
	decode(t, w, &edit)
	if edit.Row.CheckInTime != "14:20" || edit.Row.Status != attendance.StatusLate || edit.PresentCount != 11 {
		t.Fatalf("edit = %+v", edit)
	}

	w = s.do(t, http.MethodPost, "/api/attendance/workflow/save", token, nil)
	expect(t, w, http.StatusOK)
	var saved struct {
		Summary        attendance.Summary `json:"summary"`
		RecordsWritten int                `json:"records_written"`
		Message        string             `json:"message"`
	}
	decode(t, w, &saved)
	if saved.Summary.PresentCount != 11 || saved.Summary.AttendancePercentage != 92 || saved.RecordsWritten != 12 {
		t.Fatalf("saved = %+v", saved)
	}
	if saved.Message != "Attendance saved successfully" {
		t.Fatalf("message = %q", saved.Message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	messages, _ := s.alerts.Consume(ctx)
	select {
	case msg := <-messages:
		if msg.Type != queue.TypeAttendanceSaved {
			t.Fatalf("alert type = %s", msg.Type)
		}
	case <-ctx.Done():
		t.Fatal("no alert published after save")
	}

	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/back", token, nil), http.StatusOK)
	decode(t, s.do(t, http.MethodGet, "/api/attendance/workflow", token, nil), &view)
	if view.State != "unselected" {
		t.Fatalf("state after back = %s", view.State)
	}

	// saved state survives leaving the workflow
	expect(t, s.do(t, http.MethodPut, "/api/session/role", token, map[string]string{"role": "HR"}), http.StatusOK)
	var detail struct {
		Summary attendance.Summary     `json:"summary"`
		Roster  []attendance.RosterRow `json:"roster"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/occurrences/wc-1", token, nil), &detail)
	if detail.Summary.PresentCount != 11 || len(detail.Roster) != 12 {
		t.Fatalf("detail = %+v", detail.Summary)
	}
	if detail.Roster[3].IsPresent || detail.Roster[3].Status != attendance.StatusNotMarked {
		t.Fatalf("participant 4 = %+v", detail.Roster[3])
	}
	want := time.Date(2025, time.November, 18, 14, 20, 0, 0, time.UTC)
	if detail.Roster[5].CheckInTime == nil || !detail.Roster[5].CheckInTime.Equal(want) {
		t.Fatalf("participant 6 check-in = %v", detail.Roster[5].CheckInTime)
	}
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	var summaries struct {
		Summaries []struct {
			attendance.Summary
			BelowThreshold bool `json:"below_threshold"`
		} `json:"summaries"`
		Threshold int `json:"threshold"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/occurrences", token, nil), &summaries)
	if len(summaries.Summaries) != 5 || summaries.Threshold != 75 {
		t.Fatalf("summaries = %d threshold %d", len(summaries.Summaries), summaries.Threshold)
	}
	if first := summaries.Summaries[0]; first.EventID != "evt-1" || first.AttendancePercentage != 25 || !first.BelowThreshold {
		t.Fatalf("evt-1 = %+v", first)
	}

	var individuals struct {
		Individuals []attendance.IndividualAttendance `json:"individuals"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/individuals", token, nil), &individuals)
	if len(individuals.Individuals) != 12 {
		t.Fatalf("individuals = %d", len(individuals.Individuals))
	}
	if ahmad := individuals.Individuals[0]; ahmad.TotalEvents != 2 || ahmad.AttendancePercentage != 100 || ahmad.IsBelowThreshold {
		t.Fatalf("ahmad = %+v", ahmad)
	}

	var monthly struct {
		Months []attendance.MonthlyAttendance `json:"months"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/monthly?months=6", token, nil), &monthly)
	if len(monthly.Months) != 2 || monthly.Months[0].Month != "Nov 2025" || monthly.Months[1].Month != "Dec 2025" {
		t.Fatalf("months = %+v", monthly.Months)
	}

	var dash attendance.DashboardStats
	decode(t, s.do(t, http.MethodGet, "/api/dashboard", token, nil), &dash)
	if dash.TotalOccurrences != 6 || dash.WeeklyClasses != 3 || dash.TotalParticipants != 12 {
		t.Fatalf("dashboard = %+v", dash)
	}
	if dash.CurrentMonth == nil || dash.CurrentMonth.Month != "Nov 2025" {
		t.Fatalf("current month = %+v", dash.CurrentMonth)
	}

	expect(t, s.do(t, http.MethodGet, "/api/reports/occurrences/evt-3", token, nil), http.StatusNotFound)
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	w := s.do(t, http.MethodGet, "/api/reports/occurrences/evt-1/export.csv", token, nil)
	expect(t, w, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attendance-Monthly%20Team%20Meeting-2025-11-20.csv") {
		t.Fatalf("content-disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 13 || lines[0] != "Name,Present,Status,Check-in Time" {
		t.Fatalf("csv = %q", w.Body.String())
	}
	if lines[1] != "Ahmad Fauzi,Yes,On time,08:55" {
		t.Fatalf("first row = %q", lines[1])
	}
	if lines[12] != "Lina Marlina,No,Not Marked,-" {
		t.Fatalf("last row = %q", lines[12])
	}

	w = s.do(t, http.MethodGet, "/api/reports/occurrences/evt-1/export.xlsx", token, nil)
	expect(t, w, http.StatusOK)
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Fatal("xlsx body is not a zip archive")
	}

	w = s.do(t, http.MethodGet, "/api/calendar.ics", token, nil)
	expect(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "BEGIN:VCALENDAR") || strings.Count(w.Body.String(), "BEGIN:VEVENT") != 6 {
		t.Fatalf("calendar = %q", w.Body.String())
	}

	expect(t, s.do(t, http.MethodGet, "/api/reports/occurrences/missing/export.csv", token, nil), http.StatusNotFound)
}

func TestSaveRejectsOccurrenceNoLongerAttendable(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/select", token, map[string]string{"occurrence_id": "evt-2"}), http.StatusOK)
	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/mark-all-present", token, nil), http.StatusOK)

	event := map[string]any{
		"name": "Training Workshop", "start_date": "2025-11-25", "start_time": "13:00",
		"end_date": "2025-11-25", "end_time": "16:00", "attendance_enabled": false,
	}
	expect(t, s.do(t, http.MethodPut, "/api/events/evt-2", token, event), http.StatusOK)
	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/save", token, nil), http.StatusNotFound)

	event["attendance_enabled"] = true
	expect(t, s.do(t, http.MethodPut, "/api/events/evt-2", token, event), http.StatusOK)

	var detail struct {
		Summary attendance.Summary `json:"summary"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/occurrences/evt-2", token, nil), &detail)
	if detail.Summary.PresentCount != 0 {
		t.Fatalf("rejected save wrote records: present = %d", detail.Summary.PresentCount)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	messages, _ := s.alerts.Consume(ctx)
	select {
	case msg, ok := <-messages:
		if ok {
			t.Fatalf("alert published for rejected save: %+v", msg)
		}
	case <-ctx.Done():
	}
}

func TestSaveUsesCurrentOccurrenceDate(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "")

	expect(t, s.do(t, http.MethodPost, "/api/attendance/workflow/select", token, map[string]string{"occurrence_id": "wc-2"}), http.StatusOK)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/1/presence", token, map[string]bool{"present": true}), http.StatusOK)
	expect(t, s.do(t, http.MethodPut, "/api/attendance/workflow/rows/1/check-in", token, map[string]string{"check_in_time": "14:20"}), http.StatusOK)

	expect(t, s.do(t, http.MethodPut, "/api/weekly-classes/wc-2", token, map[string]any{
		"name": "Kelas Mingguan - Week 2", "topic": "Struktur Data & Algoritma", "date": "2025-11-26",
		"start_time": "14:00", "end_time": "16:00",
	}), http.StatusOK)

	w := s.do(t, http.MethodPost, "/api/attendance/workflow/save", token, nil)
	expect(t, w, http.StatusOK)
	var saved struct {
		Summary attendance.Summary `json:"summary"`
	}
	decode(t, w, &saved)
	if want := time.Date(2025, time.November, 26, 0, 0, 0, 0, time.UTC); !saved.Summary.EventDate.Equal(want) {
		t.Fatalf("summary date = %v, want %v", saved.Summary.EventDate, want)
	}

	var detail struct {
		Roster []attendance.RosterRow `json:"roster"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/reports/occurrences/wc-2", token, nil), &detail)
	want := time.Date(2025, time.November, 26, 14, 20, 0, 0, time.UTC)
	if detail.Roster[0].CheckInTime == nil || !detail.Roster[0].CheckInTime.Equal(want) {
		t.Fatalf("check-in = %v, want %v", detail.Roster[0].CheckInTime, want)
	}
}

func TestCreateSessionChunkedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"role":"DutyOfficer"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	expect(t, w, http.StatusCreated)

	var resp struct {
		Role attendance.Role `json:"role"`
	}
	decode(t, w, &resp)
	if resp.Role != attendance.RoleDutyOfficer {
		t.Fatalf("role = %s, want DutyOfficer", resp.Role)
	}
}
