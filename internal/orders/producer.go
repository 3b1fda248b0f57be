package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"orderflow/internal/events"
	kafkax "orderflow/internal/kafka"
	"orderflow/internal/metrics"
)

var ErrMissingTimestamp = errors.New("fromTimestamp is required")

// Publisher is the broker-facing surface the producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

// Producer builds and publishes domain events. It owns no broker state
// itself; the injected Publisher holds the single process-wide connection.
type Producer struct {
	Pub     Publisher
	Service string
	Log     *slog.Logger
}

// CreateOrder builds a PENDING order, publishes it keyed by its id and
// returns it to the caller. Downstream processing is asynchronous; the only
// failure the caller sees is the broker refusing the publish.
func (p *Producer) CreateOrder(ctx context.Context, customerID string, items []events.Item, totalAmount float64) (events.Order, error) {
	order := events.Order{
		OrderID:     uuid.NewString(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: totalAmount,
		Status:      events.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	eventID, err := p.publish(ctx, events.EventOrderCreated, order.OrderID, order)
	if err != nil {
		return events.Order{}, fmt.Errorf("create order: %w", err)
	}
	p.Log.Info("order created",
		"orderId", order.OrderID, "eventId", eventID,
		"customerId", customerID, "totalAmount", totalAmount)
	return order, nil
}

// Replay publishes a REPLAY marker on the domain topic; consumers recognize
// it by the event-type header. An empty orderID targets all orders from
// fromTimestamp. The marker does not itself re-deliver history.
func (p *Producer) Replay(ctx context.Context, orderID string, fromTimestamp time.Time) (events.ReplayEvent, error) {
	if fromTimestamp.IsZero() {
		return events.ReplayEvent{}, ErrMissingTimestamp
	}
	ev := events.ReplayEvent{
		Type:          events.ReplayType,
		OrderID:       orderID,
		FromTimestamp: fromTimestamp,
		ReplayedAt:    time.Now().UTC(),
	}
	key := orderID
	if key == "" {
		key = "replay"
	}
	eventID, err := p.publish(ctx, events.EventOrderReplay, key, ev)
	if err != nil {
		return events.ReplayEvent{}, fmt.Errorf("replay: %w", err)
	}
	p.Log.Info("replay event published",
		"orderId", orderID, "eventId", eventID, "fromTimestamp", fromTimestamp)
	return ev, nil
}

// publish wraps the payload in an envelope and sends it on order.created
// with the event-type/event-version headers. Returns the generated event id.
func (p *Producer) publish(ctx context.Context, eventType, key string, payload any) (string, error) {
	env := events.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: events.EventVersion,
		Key:          key,
		Payload:      kafkax.MustMarshal(payload),
		ProducedAt:   time.Now().UTC(),
	}
	err := p.Pub.Publish(ctx, events.TopicOrderCreated,
		events.PartitionKey(key), kafkax.MustMarshal(env),
		kafkago.Header{Key: "event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "event-version", Value: []byte(events.EventVersion)},
	)
	if err != nil {
		return "", err
	}
	metrics.EventsPublished.WithLabelValues(events.TopicOrderCreated, eventType).Inc()
	return env.EventID, nil
}
