package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendboard/internal/attendance"
	"attendboard/internal/auth"
	"attendboard/internal/queue"
	"attendboard/internal/store"
)

var errNotFound = errors.New("not found")

// Options configures token issuance and time handling.
type Options struct {
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration
	Location   *time.Location
	Now        func() time.Time
}

// Handler serves the dashboard API over in-memory sessions.
type Handler struct {
	sessions *store.Registry
	alerts   queue.Queue // nil disables alert publishing
	logger   *zap.Logger
	opts     Options
}

// New creates a handler.
func New(sessions *store.Registry, alerts queue.Queue, logger *zap.Logger, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, alerts: alerts, logger: logger, opts: opts}
}

func (h *Handler) reports(sess *store.Session) *attendance.Service {
	return attendance.NewService(sess.Store, h.opts.Now)
}

// fail maps domain errors to HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, attendance.ErrNoSelection),
		errors.Is(err, attendance.ErrRowAbsent):
		status = http.StatusConflict
	case errors.Is(err, attendance.ErrUnknownParticipant),
		errors.Is(err, attendance.ErrOccurrenceNotFound),
		errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidTime),
		errors.Is(err, store.ErrUnknownRole):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
}

func session(c *gin.Context) *store.Session {
	return auth.SessionFrom(c)
}
