package notification

import (
	"fmt"
	"log/slog"
	"time"

	"orderflow/internal/events"
)

// Service simulates notifying the customer over email, SMS and push,
// sequentially. It always succeeds.
type Service struct {
	log   *slog.Logger
	delay time.Duration
}

func New(log *slog.Logger, delay time.Duration) *Service {
	return &Service{log: log, delay: delay}
}

func (s *Service) Handle(order events.Order) events.Outcome {
	s.log.Info("sending notifications", "orderId", order.OrderID)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.log.Info("email sent",
		"to", fmt.Sprintf("customer_%s@example.com", order.CustomerID),
		"subject", fmt.Sprintf("Order Confirmation - %s", order.OrderID))
	s.log.Info("sms sent",
		"message", fmt.Sprintf("Order %s confirmed", order.OrderID))
	s.log.Info("push notification sent",
		"title", "Order Received!", "orderId", order.OrderID)

	s.log.Info("all notifications sent", "orderId", order.OrderID)
	return events.Outcome{
		Success: true,
		OrderID: order.OrderID,
		Message: "Notifications sent successfully",
	}
}
