// Package notify models the user-facing notification sink consumed by cart
// and checkout operations.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stitchpress/storefront/pkg/messaging"
	"github.com/stitchpress/storefront/pkg/messaging/events"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notice is a single user-facing message.
type Notice struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Severity    Severity
}

// Notifier delivers notices fire-and-forget: implementations must never
// return delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// EventNotifier publishes notices as NoticeEvents. Publish failures are
// logged and swallowed.
type EventNotifier struct {
	publisher messaging.Publisher
	logger    *slog.Logger
}

func NewEventNotifier(publisher messaging.Publisher, logger *slog.Logger) *EventNotifier {
	return &EventNotifier{
		publisher: publisher,
		logger:    logger.With("component", "notifier"),
	}
}

func (n *EventNotifier) Notify(ctx context.Context, notice Notice) {
	event := events.NoticeEvent{
		UserID:      notice.UserID,
		Title:       notice.Title,
		Description: notice.Description,
		Severity:    string(notice.Severity),
		EmittedAt:   time.Now().UTC(),
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish notice", "title", notice.Title, "error", err)
	}
}

// LogNotifier writes notices to the log. Used when NATS is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notice Notice) {
	n.logger.InfoContext(ctx, "Notice",
		"user_id", notice.UserID,
		"title", notice.Title,
		"description", notice.Description,
		"severity", string(notice.Severity),
	)
}
