package handler

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendboard/internal/attendance"
	"attendboard/internal/metrics"
)

type summaryView struct {
	attendance.Summary
	BelowThreshold bool `json:"below_threshold"`
}

// Dashboard returns the stat cards.
func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports(session(c)).Dashboard())
}

// MonthlyTrend returns the chart series for the last ?months= months (default 6).
func (h *Handler) MonthlyTrend(c *gin.Context) {
	months := 6
	if v := c.Query("months"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			months = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"months": h.reports(session(c)).Monthly(months)})
}

// OccurrenceSummaries is the by-event absences table.
func (h *Handler) OccurrenceSummaries(c *gin.Context) {
	summaries := h.reports(session(c)).Summaries()
	out := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryView{Summary: s, BelowThreshold: attendance.BelowThreshold(s.AttendancePercentage)})
	}
	c.JSON(http.StatusOK, gin.H{"summaries": out, "threshold": attendance.Threshold})
}

// OccurrenceDetail is the drill-down: the summary plus the full roster.
func (h *Handler) OccurrenceDetail(c *gin.Context) {
	svc := h.reports(session(c))
	id := c.Param("id")
	summary, err := svc.Summary(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	_, rows, err := svc.Roster(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "roster": rows})
}

// IndividualReport is the cumulative per-participant table.
func (h *Handler) IndividualReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"individuals": h.reports(session(c)).Individuals(),
		"threshold":   attendance.Threshold,
	})
}

// ExportCSV downloads the occurrence roster as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	occ, rows, err := h.reports(session(c)).Roster(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := attendance.WriteCSV(&buf, rows); err != nil {
		h.fail(c, err)
		return
	}
	metrics.Exports.WithLabelValues("csv").Inc()
	attachment(c, attendance.ExportFilename(occ, "csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX downloads the occurrence roster as a workbook.
func (h *Handler) ExportXLSX(c *gin.Context) {
	occ, rows, err := h.reports(session(c)).Roster(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	buf, err := attendance.WriteXLSX(occ, rows)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.Exports.WithLabelValues("xlsx").Inc()
	attachment(c, attendance.ExportFilename(occ, "xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}
