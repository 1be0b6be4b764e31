package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendboard/internal/alerts"
	"attendboard/internal/attendance"
	"attendboard/internal/metrics"
	"attendboard/internal/store"
)

type occurrenceOption struct {
	attendance.Occurrence
	PresentCount      int `json:"present_count"`
	TotalParticipants int `json:"total_participants"`
}

type workflowView struct {
	State        attendance.WorkflowState `json:"state"`
	Occurrence   *attendance.Occurrence   `json:"occurrence,omitempty"`
	Rows         []attendance.WorkingRow  `json:"rows,omitempty"`
	PresentCount int                      `json:"present_count"`
	Total        int                      `json:"total"`
}

func viewOf(wf *attendance.Workflow, filter string) workflowView {
	v := workflowView{State: wf.State()}
	occ, ok := wf.Selected()
	if !ok {
		return v
	}
	all, _ := wf.Rows("")
	rows, _ := wf.Rows(filter)
	v.Occurrence = &occ
	v.Rows = rows
	v.PresentCount = wf.PresentCount()
	v.Total = len(all)
	return v
}

// ListAttendableOccurrences is the fill-attendance pick list.
func (h *Handler) ListAttendableOccurrences(c *gin.Context) {
	svc := h.reports(session(c))
	occs := svc.Occurrences()
	summaries := svc.SummariesFor(occs)
	out := make([]occurrenceOption, 0, len(occs))
	for i, occ := range occs {
		out = append(out, occurrenceOption{
			Occurrence:        occ,
			PresentCount:      summaries[i].PresentCount,
			TotalParticipants: summaries[i].TotalParticipants,
		})
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": out})
}

// GetWorkflow returns the workflow state and the rows matching ?q=.
func (h *Handler) GetWorkflow(c *gin.Context) {
	filter := c.Query("q")
	var v workflowView
	_ = session(c).WithWorkflow(func(wf *attendance.Workflow) error {
		v = viewOf(wf, filter)
		return nil
	})
	c.JSON(http.StatusOK, v)
}

type selectRequest struct {
	OccurrenceID string `json:"occurrence_id" binding:"required"`
}

// SelectOccurrence loads the working set for one occurrence.
func (h *Handler) SelectOccurrence(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := session(c)
	occ, err := h.reports(sess).Occurrence(req.OccurrenceID)
	if err != nil {
		h.fail(c, err)
		return
	}
	var v workflowView
	_ = sess.WithWorkflow(func(wf *attendance.Workflow) error {
		wf.Select(occ, sess.Store.Participants(), sess.Store.AttendanceRecords())
		v = viewOf(wf, "")
		return nil
	})
	c.JSON(http.StatusOK, v)
}

// BackToList leaves editing without saving.
func (h *Handler) BackToList(c *gin.Context) {
	var v workflowView
	_ = session(c).WithWorkflow(func(wf *attendance.Workflow) error {
		wf.Back()
		v = viewOf(wf, "")
		return nil
	})
	c.JSON(http.StatusOK, v)
}

// MarkAllPresent marks every working row present.
func (h *Handler) MarkAllPresent(c *gin.Context) {
	var v workflowView
	err := session(c).WithWorkflow(func(wf *attendance.Workflow) error {
		if err := wf.MarkAllPresent(); err != nil {
			return err
		}
		v = viewOf(wf, "")
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflow": v, "message": "All participants marked as present"})
}

type presenceRequest struct {
	Present *bool `json:"present" binding:"required"`
}

// SetPresence toggles one participant.
func (h *Handler) SetPresence(c *gin.Context) {
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editRow(c, func(wf *attendance.Workflow, pid string) (attendance.WorkingRow, error) {
		return wf.SetPresence(pid, *req.Present)
	})
}

type statusRequest struct {
	Status attendance.Status `json:"status" binding:"required"`
}

// SetStatus changes one present participant's status.
func (h *Handler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editRow(c, func(wf *attendance.Workflow, pid string) (attendance.WorkingRow, error) {
		return wf.SetStatus(pid, req.Status)
	})
}

type checkInRequest struct {
	CheckInTime string `json:"check_in_time"`
}

// SetCheckInTime edits one present participant's check-in time.
func (h *Handler) SetCheckInTime(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.editRow(c, func(wf *attendance.Workflow, pid string) (attendance.WorkingRow, error) {
		return wf.SetCheckInTime(pid, req.CheckInTime)
	})
}

func (h *Handler) editRow(c *gin.Context, edit func(wf *attendance.Workflow, pid string) (attendance.WorkingRow, error)) {
	pid := c.Param("participantId")
	var row attendance.WorkingRow
	var present int
	err := session(c).WithWorkflow(func(wf *attendance.Workflow) error {
		var err error
		row, err = edit(wf, pid)
		present = wf.PresentCount()
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"row": row, "present_count": present})
}

// SaveAttendance commits the working set, overwriting the occurrence's records.
// The occurrence is resolved again first: one that is no longer attendable is
// a 404 and nothing is written.
func (h *Handler) SaveAttendance(c *gin.Context) {
	sess := session(c)
	svc := h.reports(sess)
	var summary attendance.Summary
	var written int
	err := sess.WithWorkflow(func(wf *attendance.Workflow) error {
		selected, ok := wf.Selected()
		if !ok {
			return attendance.ErrNoSelection
		}
		occ, err := svc.Occurrence(selected.ID)
		if err != nil {
			return err
		}
		if err := wf.Refresh(occ); err != nil {
			return err
		}
		records, err := wf.Save(sess.Store)
		if err != nil {
			return err
		}
		written = len(records)
		summary = attendance.SummarizeEvent(occ, sess.Store.AttendanceRecords(), sess.Store.Participants())
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	metrics.AttendanceSaves.WithLabelValues(string(summary.EventType)).Inc()
	metrics.RecordsWritten.Add(float64(written))
	h.publishAlert(c.Request.Context(), sess, svc, summary.EventID)

	c.JSON(http.StatusOK, gin.H{
		"summary":         summary,
		"records_written": written,
		"message":         "Attendance saved successfully",
	})
}

func (h *Handler) publishAlert(ctx context.Context, sess *store.Session, svc *attendance.Service, occurrenceID string) {
	if h.alerts == nil {
		return
	}
	alert, err := alerts.Build(sess.ID, svc, occurrenceID, h.opts.Now())
	if err != nil {
		h.logger.Warn("build alert failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := alerts.Publish(ctx, h.alerts, alert); err != nil {
		h.logger.Warn("publish alert failed", zap.String("occurrence", occurrenceID), zap.Error(err))
	}
}
