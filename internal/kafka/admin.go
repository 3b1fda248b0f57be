package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/events"
)

// Admin is the slice of the broker admin API that provisioning needs.
type Admin interface {
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
	CreateTopics(ctx context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error)
}

func NewAdmin(brokers []string) Admin {
	return &kafka.Client{Addr: kafka.TCP(brokers...), Timeout: 10 * time.Second}
}

const (
	ensureRetries      = 10
	ensureInitialDelay = 300 * time.Millisecond
	ensureMaxDelay     = 5 * time.Second
)

// EnsureTopics creates the missing topics from the registry and leaves
// existing ones alone. Concurrent calls from several starting instances race
// only into "already exists", which is treated as success. Retries with
// exponential backoff up to a fixed ceiling; a broker that stays unreachable
// past that is fatal for the caller.
func EnsureTopics(ctx context.Context, admin Admin, topics []events.TopicConfig, log *slog.Logger) error {
	delay := ensureInitialDelay
	var lastErr error
	for attempt := 1; attempt <= ensureRetries; attempt++ {
		lastErr = ensureOnce(ctx, admin, topics, log)
		if lastErr == nil {
			return nil
		}
		log.Warn("topic provisioning failed, retrying",
			"attempt", attempt, "retries", ensureRetries, "delay", delay.String(), "err", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > ensureMaxDelay {
			delay = ensureMaxDelay
		}
	}
	return fmt.Errorf("ensure topics after %d attempts: %w", ensureRetries, lastErr)
}

func ensureOnce(ctx context.Context, admin Admin, topics []events.TopicConfig, log *slog.Logger) error {
	md, err := admin.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	existing := make(map[string]bool, len(md.Topics))
	for _, t := range md.Topics {
		existing[t.Name] = true
	}

	var missing []kafka.TopicConfig
	for _, t := range topics {
		if existing[t.Name] {
			continue
		}
		missing = append(missing, kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.Partitions,
			ReplicationFactor: t.Replication,
		})
	}
	if len(missing) == 0 {
		log.Info("all topics already exist")
		return nil
	}

	resp, err := admin.CreateTopics(ctx, &kafka.CreateTopicsRequest{Topics: missing})
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for name, terr := range resp.Errors {
		if terr != nil && !errors.Is(terr, kafka.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", name, terr)
		}
	}
	created := make([]string, 0, len(missing))
	for _, t := range missing {
		created = append(created, t.Topic)
	}
	log.Info("topics created", "topics", created)
	return nil
}
