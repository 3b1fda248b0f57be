package events

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentProcessed = "payment.processed"
	TopicInventoryUpdated = "inventory.updated"
	TopicNotificationSent = "notification.sent"
)

const (
	GroupPaymentService      = "payment-service-group"
	GroupInventoryService    = "inventory-service-group"
	GroupNotificationService = "notification-service-group"
)

const (
	DefaultPartitions  = 3
	DefaultReplication = 1
)

type TopicConfig struct {
	Name        string
	Partitions  int
	Replication int
}

// Topics returns the full static registry; every service provisions it
// idempotently on startup.
func Topics() []TopicConfig {
	names := []string{
		TopicOrderCreated,
		TopicPaymentProcessed,
		TopicInventoryUpdated,
		TopicNotificationSent,
	}
	out := make([]TopicConfig, 0, len(names))
	for _, n := range names {
		out = append(out, TopicConfig{Name: n, Partitions: DefaultPartitions, Replication: DefaultReplication})
	}
	return out
}

// Partition key = orderId, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
