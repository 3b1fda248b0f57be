package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/events"
	"orderflow/internal/metrics"
)

// Deduper remembers processed event ids so redeliveries after a rebalance can
// be skipped. Optional; without one, duplicates reach the handler, which the
// at-least-once contract allows.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Dispatcher decodes each record once into its tagged variant and routes it:
// orders go to Handle, replay markers are acknowledged by header. Every
// failure mode ends here — decode errors and handler faults are logged and
// the offset still advances.
type Dispatcher struct {
	Service string
	Log     *slog.Logger
	Dedup   Deduper
	Handle  func(order events.Order) events.Outcome

	// OnReplay, when set, is invoked for replay control events.
	OnReplay func(ev events.ReplayEvent)
}

func (d *Dispatcher) Dispatch(ctx context.Context, m kafka.Message) {
	env, msg, err := events.Decode(headerValue(m, "event-type"), m.Value)
	if err != nil {
		metrics.DecodeFailures.WithLabelValues(d.Service).Inc()
		d.Log.Error("skipping undecodable message",
			"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		return
	}

	if d.Dedup != nil && env.EventID != "" {
		seen, derr := d.Dedup.Seen(ctx, env.EventID)
		if derr == nil && seen {
			d.Log.Debug("duplicate delivery skipped", "eventId", env.EventID)
			return
		}
		if derr == nil {
			_ = d.Dedup.Mark(ctx, env.EventID)
		}
	}

	metrics.EventsConsumed.WithLabelValues(m.Topic, env.EventType).Inc()

	switch {
	case msg.Replay != nil:
		d.Log.Info("replay event received",
			"orderId", msg.Replay.OrderID,
			"fromTimestamp", msg.Replay.FromTimestamp,
			"partition", m.Partition, "offset", m.Offset)
		if d.OnReplay != nil {
			d.OnReplay(*msg.Replay)
		}
	case msg.Order != nil:
		order := *msg.Order
		d.Log.Info("received order event",
			"orderId", order.OrderID, "partition", m.Partition, "offset", m.Offset)
		out := d.safeHandle(order)
		if out.Success {
			metrics.HandlerOutcomes.WithLabelValues(d.Service, "success").Inc()
			d.Log.Info("handler succeeded", "orderId", out.OrderID, "message", out.Message)
		} else {
			metrics.HandlerOutcomes.WithLabelValues(d.Service, "failure").Inc()
			d.Log.Warn("handler failed", "orderId", out.OrderID, "message", out.Message)
		}
	}
}

// safeHandle converts a handler fault into a failure outcome so a bad
// message never stops the runtime.
func (d *Dispatcher) safeHandle(order events.Order) (out events.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error("handler fault",
				"orderId", order.OrderID, "panic", r, "stack", string(debug.Stack()))
			out = events.Outcome{
				OrderID: order.OrderID,
				Message: fmt.Sprintf("handler fault: %v", r),
			}
		}
	}()
	return d.Handle(order)
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
