// Package subscriber consumes notice events from JetStream and delivers them
// to the user-facing notification channel.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stitchpress/storefront/pkg/config"
	"github.com/stitchpress/storefront/pkg/messaging/events"
	"golang.org/x/sync/errgroup"
)

// Start initializes the NATS JetStream consumer and starts multiple worker goroutines to process messages.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg.Timeout, subscriberCfg.Interval, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the NATS JetStream consumer and processes them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout time.Duration, interval time.Duration, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			// ctx was cancelled or timed out (e.g., application shutdown)
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				// if the error is a timeout, we can just continue to the next iteration
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				// for other errors, we can log and retry
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(msg, logger)
			}
		}
	}
}

// ackableMsg is the slice of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// handleMessage processes a single notice from the NATS JetStream consumer.
// A malformed payload is nacked for redelivery; a delivered notice is acked.
func handleMessage(msg ackableMsg, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var event events.NoticeEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	deliverNotice(event, logger)

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

// deliverNotice pushes the notice to the user-facing channel. Error notices
// carry the severity through to the log level.
func deliverNotice(event events.NoticeEvent, logger *slog.Logger) {
	level := slog.LevelInfo
	if event.Severity == "error" {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "notice delivered",
		slog.String("user_id", event.UserID.String()),
		slog.String("title", event.Title),
		slog.String("description", event.Description),
		slog.String("severity", event.Severity),
		slog.String("emitted_at", event.EmittedAt.Format(time.RFC3339)))
}
