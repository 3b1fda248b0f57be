package payment

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"orderflow/internal/events"
)

// successRate is the simulated gateway's approval probability.
const successRate = 0.9

// Service simulates a payment gateway call. It never touches the broker and
// reports every result, including declines, as an Outcome.
type Service struct {
	log   *slog.Logger
	delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(log *slog.Logger, delay time.Duration) *Service {
	return &Service{
		log:   log,
		delay: delay,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithSource fixes the random source, for deterministic tests.
func NewWithSource(log *slog.Logger, delay time.Duration, src rand.Source) *Service {
	return &Service{log: log, delay: delay, rnd: rand.New(src)}
}

func (s *Service) Handle(order events.Order) events.Outcome {
	s.log.Info("processing payment", "orderId", order.OrderID, "amount", order.TotalAmount)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	roll := s.rnd.Float64()
	suffix := strconv.FormatInt(s.rnd.Int63(), 36)
	s.mu.Unlock()

	if roll >= successRate {
		s.log.Warn("payment failed", "orderId", order.OrderID, "amount", order.TotalAmount)
		return events.Outcome{
			OrderID: order.OrderID,
			Message: "Payment declined",
		}
	}

	txn := fmt.Sprintf("txn_%d_%s", time.Now().UnixMilli(), suffix)
	s.log.Info("payment successful",
		"orderId", order.OrderID, "transactionId", txn, "amount", order.TotalAmount)
	return events.Outcome{
		Success:       true,
		OrderID:       order.OrderID,
		TransactionID: txn,
		Amount:        order.TotalAmount,
	}
}
