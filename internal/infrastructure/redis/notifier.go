package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paypulse/walletsync/internal/notifier"
)

// EventStream is the stream wallet events are published to. Consumers
// (push-notification workers, history views) read with their own groups.
const EventStream = "wallet:events"

// StreamNotifier publishes wallet events to a Redis stream. Delivery is
// fire-and-forget towards the caller: publish failures are retried briefly
// and then logged, never propagated.
type StreamNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewStreamNotifier(client *redis.Client, logger zerolog.Logger) *StreamNotifier {
	return &StreamNotifier{
		client: client,
		logger: logger.With().Str("component", "stream_notifier").Logger(),
	}
}

func (n *StreamNotifier) Notify(ctx context.Context, ev notifier.Event) {
	if err := n.publish(ctx, ev); err != nil {
		n.logger.Error().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to publish event")
	}
}

func (n *StreamNotifier) publish(ctx context.Context, ev notifier.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	op := func() (struct{}, error) {
		err := n.client.XAdd(ctx, &redis.XAddArgs{
			Stream: EventStream,
			Values: map[string]any{
				"kind":      string(ev.Kind),
				"payload":   string(payload),
				"timestamp": time.Now().Unix(),
			},
		}).Err()
		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
