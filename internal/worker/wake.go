package worker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/campuspulse/social-pulse/shared/rabbitmq"
)

// StartWakeListener consumes "job ready" notifications and turns them into
// non-blocking nudges on the returned channel so the claim loop can cut its
// sleep short. The database stays the source of truth: messages are acked
// immediately and a lost message only costs one poll interval.
func StartWakeListener(ctx context.Context, client *rabbitmq.Client, logger *slog.Logger) (<-chan struct{}, error) {
	consumerTag := "pulse-wake-" + uuid.New().String()[:8]

	deliveries, err := client.Consume(consumerTag)
	if err != nil {
		return nil, err
	}

	wake := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					logger.Warn("Wake notification channel closed")
					return
				}

				if err := delivery.Ack(false); err != nil {
					logger.Warn("Failed to ack wake notification",
						slog.String("error", err.Error()),
					)
				}

				select {
				case wake <- struct{}{}:
				default:
					// a nudge is already pending
				}
			}
		}
	}()

	logger.Info("Wake listener started",
		slog.String("consumer_tag", consumerTag),
	)

	return wake, nil
}
