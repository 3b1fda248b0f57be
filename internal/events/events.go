package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventOrderCreated = "order.created"
	EventOrderReplay  = "order.replay"

	// EventVersion is carried in the event-version header and in the envelope.
	EventVersion = "1.0"

	// ReplayType tags the payload of a replay control event.
	ReplayType = "REPLAY"
)

// Envelope is the wire value of every message on the log. The event-type and
// event-version headers mirror EventType/EventVersion so consumers can branch
// without parsing the payload.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion string          `json:"event_version"`
	Key          string          `json:"key"`
	Payload      json.RawMessage `json:"payload"`
	ProducedAt   time.Time       `json:"produced_at"`
}

type Status string

const (
	StatusPending Status = "PENDING"
)

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is the payload of order.created. Built once by the producer,
// never written back by downstream services.
type Order struct {
	OrderID     string    `json:"orderId"`
	CustomerID  string    `json:"customerId"`
	Items       []Item    `json:"items"`
	TotalAmount float64   `json:"totalAmount"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReplayEvent is the payload of order.replay. An empty OrderID asks for a
// replay of all orders from FromTimestamp.
type ReplayEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	FromTimestamp time.Time `json:"fromTimestamp"`
	ReplayedAt    time.Time `json:"replayedAt"`
}

// Outcome is the return contract of every domain handler. It is logged,
// never persisted.
type Outcome struct {
	Success       bool    `json:"success"`
	OrderID       string  `json:"orderId"`
	Message       string  `json:"message,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
}

// Message is the decoded variant of a consumed record: exactly one of the
// fields is non-nil.
type Message struct {
	Order  *Order
	Replay *ReplayEvent
}

// Decode unwraps an envelope and decodes its payload according to eventType,
// which callers take from the event-type header. When the header is absent it
// falls back to the envelope's own tag.
func Decode(eventType string, value []byte) (Envelope, Message, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	if eventType == "" {
		eventType = env.EventType
	}

	switch eventType {
	case EventOrderReplay:
		var rp ReplayEvent
		if err := json.Unmarshal(env.Payload, &rp); err != nil {
			return env, Message{}, fmt.Errorf("decode replay payload: %w", err)
		}
		return env, Message{Replay: &rp}, nil
	case EventOrderCreated:
		var o Order
		if err := json.Unmarshal(env.Payload, &o); err != nil {
			return env, Message{}, fmt.Errorf("decode order payload: %w", err)
		}
		return env, Message{Order: &o}, nil
	default:
		return env, Message{}, fmt.Errorf("unknown event type %q", eventType)
	}
}
