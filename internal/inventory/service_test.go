package inventory

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"orderflow/internal/events"
)

func testService() *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(NewStore(), log, 0)
}

func TestReserveDeductsStock(t *testing.T) {
	s := testService()
	out := s.Handle(events.Order{
		OrderID:     "o1",
		Items:       []events.Item{{ProductID: "item-001", Quantity: 5}},
		TotalAmount: 100,
	})
	if !out.Success {
		t.Fatalf("outcome = %+v", out)
	}
	if stock, _ := s.Store.Stock("item-001"); stock != 95 {
		t.Fatalf("item-001 stock = %d, want 95", stock)
	}
}

func TestUnknownProductFailsWithoutDeduction(t *testing.T) {
	s := testService()
	out := s.Handle(events.Order{
		OrderID: "o1",
		Items:   []events.Item{{ProductID: "item-999", Quantity: 1}},
	})
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Message != "Product item-999 not found" {
		t.Fatalf("message = %q", out.Message)
	}
	for id, want := range map[string]int{"item-001": 100, "item-002": 50, "item-003": 75, "item-004": 30, "item-005": 20} {
		if stock, _ := s.Store.Stock(id); stock != want {
			t.Fatalf("%s stock = %d, want %d", id, stock, want)
		}
	}
}

// A single insufficient line item must leave the whole order untouched,
// including items that were individually in stock.
func TestReservationIsAllOrNothing(t *testing.T) {
	s := testService()
	out := s.Handle(events.Order{
		OrderID: "o1",
		Items: []events.Item{
			{ProductID: "item-001", Quantity: 5},
			{ProductID: "item-005", Quantity: 999},
		},
	})
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Message != "Insufficient stock for Webcam" {
		t.Fatalf("message = %q", out.Message)
	}
	if stock, _ := s.Store.Stock("item-001"); stock != 100 {
		t.Fatalf("item-001 stock = %d, want 100 (no partial deduction)", stock)
	}
	if stock, _ := s.Store.Stock("item-005"); stock != 20 {
		t.Fatalf("item-005 stock = %d, want 20", stock)
	}
}

// Concurrent reservations on the same product must never oversell.
func TestConcurrentReservations(t *testing.T) {
	s := testService()
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := s.Handle(events.Order{
				OrderID: "o-conc",
				Items:   []events.Item{{ProductID: "item-002", Quantity: 1}},
			})
			if out.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if successes != 50 {
		t.Fatalf("successes = %d, want 50 (seed stock)", successes)
	}
	if stock, _ := s.Store.Stock("item-002"); stock != 0 {
		t.Fatalf("item-002 stock = %d, want 0", stock)
	}
}
