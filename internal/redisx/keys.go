package redisx

import "time"

const (
	// Cache of the last known order status: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Dedup of processed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
