package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attendboard/internal/attendance"
	"attendboard/internal/metrics"
)

type eventRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	StartDate         string `json:"start_date" binding:"required"`
	StartTime         string `json:"start_time" binding:"required"`
	EndDate           string `json:"end_date" binding:"required"`
	EndTime           string `json:"end_time" binding:"required"`
	AttendanceEnabled *bool  `json:"attendance_enabled"`
}

type weeklyClassRequest struct {
	Name        string `json:"name" binding:"required"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
}

func (h *Handler) parseDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, h.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	return t, nil
}

func (h *Handler) parseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, h.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	return t, nil
}

func validClock(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}

// ListEvents returns all events in creation order.
func (h *Handler) ListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": session(c).Store.Events()})
}

// CreateEvent adds a new event with a generated id.
func (h *Handler) CreateEvent(c *gin.Context) {
	h.saveEvent(c, "")
}

// UpdateEvent replaces an existing event in place.
func (h *Handler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")
	if _, ok := session(c).Store.Event(id); !ok {
		h.fail(c, fmt.Errorf("event %s: %w", id, errNotFound))
		return
	}
	h.saveEvent(c, id)
}

func (h *Handler) saveEvent(c *gin.Context, id string) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := h.parseDateTime(req.StartDate, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := h.parseDateTime(req.EndDate, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := session(c).Store
	enabled := true
	if id != "" {
		if existing, ok := st.Event(id); ok {
			enabled = existing.AttendanceEnabled
		}
	} else {
		id = "evt-" + uuid.NewString()
	}
	if req.AttendanceEnabled != nil {
		enabled = *req.AttendanceEnabled
	}

	evt := attendance.Event{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		StartDate:         start,
		EndDate:           end,
		AttendanceEnabled: enabled,
		Type:              attendance.TypeEvent,
	}
	if st.UpsertEvent(evt) {
		metrics.OccurrencesUpserted.WithLabelValues(string(attendance.TypeEvent), "create").Inc()
		c.JSON(http.StatusCreated, gin.H{"event": evt, "message": "Event created successfully"})
		return
	}
	metrics.OccurrencesUpserted.WithLabelValues(string(attendance.TypeEvent), "update").Inc()
	c.JSON(http.StatusOK, gin.H{"event": evt, "message": "Event updated successfully"})
}

// ListWeeklyClasses returns all weekly classes in creation order.
func (h *Handler) ListWeeklyClasses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weekly_classes": session(c).Store.WeeklyClasses()})
}

// CreateWeeklyClass adds a new weekly class with a generated id.
func (h *Handler) CreateWeeklyClass(c *gin.Context) {
	h.saveWeeklyClass(c, "")
}

// UpdateWeeklyClass replaces an existing weekly class in place.
func (h *Handler) UpdateWeeklyClass(c *gin.Context) {
	id := c.Param("id")
	if _, ok := session(c).Store.WeeklyClass(id); !ok {
		h.fail(c, fmt.Errorf("weekly class %s: %w", id, errNotFound))
		return
	}
	h.saveWeeklyClass(c, id)
}

func (h *Handler) saveWeeklyClass(c *gin.Context, id string) {
	var req weeklyClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time and end_time must be HH:MM"})
		return
	}
	if id == "" {
		id = "wc-" + uuid.NewString()
	}

	wc := attendance.WeeklyClass{
		ID:          id,
		Name:        req.Name,
		Topic:       req.Topic,
		Description: req.Description,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Type:        attendance.TypeWeeklyClass,
	}
	if session(c).Store.UpsertWeeklyClass(wc) {
		metrics.OccurrencesUpserted.WithLabelValues(string(attendance.TypeWeeklyClass), "create").Inc()
		c.JSON(http.StatusCreated, gin.H{"weekly_class": wc, "message": "Weekly class created successfully"})
		return
	}
	metrics.OccurrencesUpserted.WithLabelValues(string(attendance.TypeWeeklyClass), "update").Inc()
	c.JSON(http.StatusOK, gin.H{"weekly_class": wc, "message": "Weekly class updated successfully"})
}

// Calendar serves every event and weekly class as an iCalendar feed.
func (h *Handler) Calendar(c *gin.Context) {
	st := session(c).Store
	var buf bytes.Buffer
	if err := attendance.WriteCalendar(&buf, st.Events(), st.WeeklyClasses(), h.opts.Now()); err != nil {
		h.fail(c, err)
		return
	}
	metrics.Exports.WithLabelValues("ics").Inc()
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
