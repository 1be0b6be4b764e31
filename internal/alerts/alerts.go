package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"attendboard/internal/attendance"
	"attendboard/internal/metrics"
	"attendboard/internal/queue"
)

// Alert is emitted after attendance for an occurrence is saved. It carries the
// occurrence summary and every participant now under the threshold.
type Alert struct {
	SessionID      string                            `json:"session_id"`
	Summary        attendance.Summary                `json:"summary"`
	BelowThreshold []attendance.IndividualAttendance `json:"below_threshold"`
	SavedAt        time.Time                         `json:"saved_at"`
}

// Build derives the alert for occurrenceID from the session's current state.
func Build(sessionID string, svc *attendance.Service, occurrenceID string, savedAt time.Time) (Alert, error) {
	summary, err := svc.Summary(occurrenceID)
	if err != nil {
		return Alert{}, err
	}
	return Alert{
		SessionID:      sessionID,
		Summary:        summary,
		BelowThreshold: svc.BelowThreshold(),
		SavedAt:        savedAt,
	}, nil
}

// Publish enqueues a for consumers.
func Publish(ctx context.Context, q queue.Queue, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return q.Publish(ctx, queue.Message{Type: queue.TypeAttendanceSaved, Body: body})
}

// Consumer logs alerts taken from a queue.
type Consumer struct {
	q      queue.Queue
	logger *zap.Logger
}

// NewConsumer creates a consumer reading q.
func NewConsumer(q queue.Queue, logger *zap.Logger) *Consumer {
	return &Consumer{q: q, logger: logger}
}

// Run handles messages until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume alerts: %w", err)
	}
	for msg := range messages {
		if msg.Type != queue.TypeAttendanceSaved {
			continue
		}
		if _, err := c.Handle(msg); err != nil {
			c.logger.Warn("drop malformed alert", zap.Error(err))
		}
	}
	return nil
}

// Handle decodes and reports one alert.
func (c *Consumer) Handle(msg queue.Message) (Alert, error) {
	var a Alert
	if err := json.Unmarshal(msg.Body, &a); err != nil {
		return Alert{}, fmt.Errorf("decode alert: %w", err)
	}

	c.logger.Info("attendance saved",
		zap.String("session", a.SessionID),
		zap.String("occurrence", a.Summary.EventID),
		zap.String("name", a.Summary.EventName),
		zap.Int("present", a.Summary.PresentCount),
		zap.Int("total", a.Summary.TotalParticipants),
		zap.Int("percentage", a.Summary.AttendancePercentage),
	)
	for _, ind := range a.BelowThreshold {
		metrics.BelowThreshold.Inc()
		c.logger.Warn("participant below attendance threshold",
			zap.String("session", a.SessionID),
			zap.String("participant", ind.ParticipantName),
			zap.Int("percentage", ind.AttendancePercentage),
			zap.Int("present", ind.PresentCount),
			zap.Int("total_events", ind.TotalEvents),
			zap.Int("threshold", attendance.Threshold),
		)
	}
	return a, nil
}
