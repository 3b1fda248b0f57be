package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderflow/internal/events"
)

type stubProducer struct {
	orders  int
	replays int
	err     error
}

func (s *stubProducer) CreateOrder(_ context.Context, customerID string, items []events.Item, totalAmount float64) (events.Order, error) {
	if s.err != nil {
		return events.Order{}, s.err
	}
	s.orders++
	return events.Order{
		OrderID:     "o1",
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: totalAmount,
		Status:      events.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (s *stubProducer) Replay(_ context.Context, orderID string, from time.Time) (events.ReplayEvent, error) {
	if s.err != nil {
		return events.ReplayEvent{}, s.err
	}
	s.replays++
	return events.ReplayEvent{Type: events.ReplayType, OrderID: orderID, FromTimestamp: from, ReplayedAt: time.Now().UTC()}, nil
}

func newTestServer(p OrderProducer) *httptest.Server {
	r := NewRouter()
	h := &OrdersHandler{
		Producer: p,
		Service:  "order-service",
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.Register(r)
	return httptest.NewServer(r)
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCreateOrderValidation(t *testing.T) {
	p := &stubProducer{}
	ts := newTestServer(p)
	defer ts.Close()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing customerId", `{"items":[{"productId":"i","quantity":1}],"totalAmount":10}`},
		{"empty items", `{"customerId":"c1","items":[],"totalAmount":10}`},
		{"missing totalAmount", `{"customerId":"c1","items":[{"productId":"i","quantity":1}]}`},
		{"negative totalAmount", `{"customerId":"c1","items":[{"productId":"i","quantity":1}],"totalAmount":-1}`},
		{"zero quantity", `{"customerId":"c1","items":[{"productId":"i","quantity":0}],"totalAmount":10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := post(t, ts.URL+"/api/orders", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
		})
	}
	if p.orders != 0 {
		t.Fatalf("invalid requests published %d events", p.orders)
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	p := &stubProducer{}
	ts := newTestServer(p)
	defer ts.Close()

	resp, body := post(t, ts.URL+"/api/orders",
		`{"customerId":"c1","items":[{"productId":"item-001","quantity":5}],"totalAmount":100}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	order, ok := body["order"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if order["status"] != "PENDING" || order["customerId"] != "c1" {
		t.Fatalf("order = %v", order)
	}
	if p.orders != 1 {
		t.Fatalf("published %d orders", p.orders)
	}
}

func TestCreateOrderProducerFailure(t *testing.T) {
	ts := newTestServer(&stubProducer{err: errors.New("broker down")})
	defer ts.Close()

	resp, _ := post(t, ts.URL+"/api/orders",
		`{"customerId":"c1","items":[{"productId":"i","quantity":1}],"totalAmount":1}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestReplayValidation(t *testing.T) {
	p := &stubProducer{}
	ts := newTestServer(p)
	defer ts.Close()

	resp, _ := post(t, ts.URL+"/api/replay", `{"orderId":"o1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing fromTimestamp: status = %d", resp.StatusCode)
	}
	resp, _ = post(t, ts.URL+"/api/replay", `{"fromTimestamp":"yesterday"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed fromTimestamp: status = %d", resp.StatusCode)
	}
	if p.replays != 0 {
		t.Fatal("invalid replay requests reached the producer")
	}
}

func TestReplayHappyPath(t *testing.T) {
	p := &stubProducer{}
	ts := newTestServer(p)
	defer ts.Close()

	resp, body := post(t, ts.URL+"/api/replay", `{"fromTimestamp":"2024-01-01T00:00:00Z"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	ev, ok := body["replayEvent"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if ev["type"] != "REPLAY" || ev["orderId"] != "" {
		t.Fatalf("replayEvent = %v", ev)
	}
	if p.replays != 1 {
		t.Fatalf("replays = %d", p.replays)
	}
}

func TestGetOrderWithoutCache(t *testing.T) {
	ts := newTestServer(&stubProducer{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/orders/o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&stubProducer{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("status=%d body=%v", resp.StatusCode, body)
	}
}
