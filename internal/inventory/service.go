package inventory

import (
	"log/slog"
	"time"

	"orderflow/internal/events"
)

// Service reserves stock for incoming orders against the in-memory store.
type Service struct {
	Store *Store
	log   *slog.Logger
	delay time.Duration
}

func New(store *Store, log *slog.Logger, delay time.Duration) *Service {
	return &Service{Store: store, log: log, delay: delay}
}

func (s *Service) Handle(order events.Order) events.Outcome {
	s.log.Info("checking inventory", "orderId", order.OrderID)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	ok, msg := s.Store.Reserve(order.Items)
	if !ok {
		s.log.Warn("inventory reservation failed", "orderId", order.OrderID, "reason", msg)
		return events.Outcome{OrderID: order.OrderID, Message: msg}
	}

	for _, it := range order.Items {
		remaining, _ := s.Store.Stock(it.ProductID)
		s.log.Info("stock updated",
			"productId", it.ProductID, "deducted", it.Quantity, "remaining", remaining)
	}
	s.log.Info("inventory reserved", "orderId", order.OrderID, "itemCount", len(order.Items))
	return events.Outcome{Success: true, OrderID: order.OrderID, Message: msg}
}
