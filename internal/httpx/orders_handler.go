package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"orderflow/internal/events"
	"orderflow/internal/redisx"
)

// OrderProducer is the producer-side surface the HTTP layer relays to.
type OrderProducer interface {
	CreateOrder(ctx context.Context, customerID string, items []events.Item, totalAmount float64) (events.Order, error)
	Replay(ctx context.Context, orderID string, fromTimestamp time.Time) (events.ReplayEvent, error)
}

type OrdersHandler struct {
	Producer OrderProducer
	Redis    *redis.Client // optional; enables the status cache
	Service  string
	Log      *slog.Logger
}

type CreateOrderReq struct {
	CustomerID  string        `json:"customerId"`
	Items       []events.Item `json:"items"`
	TotalAmount *float64      `json:"totalAmount"`
}

type ReplayReq struct {
	OrderID       string `json:"orderId"`
	FromTimestamp string `json:"fromTimestamp"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/api/orders", h.createOrder)
	r.Post("/api/replay", h.replay)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Get("/health", h.health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// createOrder validates before anything is published: a malformed request
// must never reach the log.
func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CustomerID == "" || req.TotalAmount == nil || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required fields: customerId, items, totalAmount",
		})
		return
	}
	if *req.TotalAmount < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "totalAmount must be >= 0"})
		return
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Items must have productId and quantity > 0",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Producer.CreateOrder(ctx, req.CustomerID, req.Items, *req.TotalAmount)
	if err != nil {
		h.Log.Error("create order", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create order"})
		return
	}

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, order.OrderID)
		_ = h.Redis.Set(ctx, key, `{"status":"PENDING"}`, redisx.TTLStatusCache).Err()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   order,
	})
}

func (h *OrdersHandler) replay(w http.ResponseWriter, r *http.Request) {
	var req ReplayReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.FromTimestamp == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fromTimestamp is required"})
		return
	}
	from, err := time.Parse(time.RFC3339, req.FromTimestamp)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fromTimestamp must be RFC3339"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Producer.Replay(ctx, req.OrderID, from)
	if err != nil {
		h.Log.Error("replay", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to replay events"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Event replay initiated",
		"replayEvent": ev,
	})
}

// getOrder serves the cached status; there is no durable read model behind it.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" || h.Redis == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	s, err := h.Redis.Get(ctx, key).Result()
	if err != nil || s == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(s))
}

func (h *OrdersHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   h.Service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
