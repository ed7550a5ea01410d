package conversion

import (
	"context"
	"log/slog"
	"time"
)

// State is the position of one order in the conversion workflow.
type State string

const (
	StateIdle       State = "idle"
	StateDrafting   State = "drafting"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient operator-facing message.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier delivers notifications outside the workflow.
type Notifier interface {
	Notify(ctx context.Context, orderID int64, n Notification)
}

// LogNotifier writes notifications to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(ctx context.Context, orderID int64, n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	logger.Log(ctx, level, n.Message, slog.Int64("order_id", orderID), slog.String("kind", "conversion_notification"))
}
