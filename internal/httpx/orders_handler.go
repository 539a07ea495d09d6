package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vklymiuk/tg-star-shop/internal/kafka"
	"github.com/vklymiuk/tg-star-shop/internal/orders"
	"github.com/vklymiuk/tg-star-shop/internal/pricing"
	"github.com/vklymiuk/tg-star-shop/internal/redisx"
)

type OrdersHandler struct {
	Store    orders.Store
	Policy   pricing.StarsPolicy
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

type CheckoutReq struct {
	orders.CheckoutInput
	// Optional client-generated id for retry-safe checkout.
	ExternalID string `json:"external_id"`
}

type CheckoutResp struct {
	Success    bool    `json:"success"`
	OrderID    int     `json:"order_id"`
	TotalUAH   float64 `json:"total_uah"`
	TotalStars int     `json:"total_stars"`
	TotalTON   float64 `json:"total_ton"`
	Idempotent bool    `json:"idempotent,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux, adminOnly func(http.Handler) http.Handler) {
	r.Post("/api/orders", h.checkout)
	r.Get("/api/orders/user/{userID}", h.listByUser)
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/api/orders", h.listAll)
		r.Get("/api/orders/{id}", h.getOne)
		r.Patch("/api/orders/{id}", h.update)
	})
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := orders.ValidateCheckout(req.CheckoutInput); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Retry shortcut: a repeated external_id returns the already placed
	// order instead of decrementing stock twice.
	var idemKey string
	if req.ExternalID != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
		if raw, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				if o, err := h.Store.Order(ctx, id); err == nil {
					writeJSON(w, http.StatusOK, CheckoutResp{
						Success: true, OrderID: o.ID,
						TotalUAH: o.TotalUAH, TotalStars: o.TotalStars, TotalTON: o.TotalTON,
						Idempotent: true,
					})
					return
				}
			}
		}
	}

	o, err := h.Store.PlaceOrder(ctx, req.CheckoutInput, orders.Converter(h.Policy, req.Platform))
	if err != nil {
		var nf *orders.NotFoundError
		var is *orders.InsufficientStockError
		switch {
		case errors.As(err, &nf):
			writeError(w, http.StatusNotFound, nf.Error())
		case errors.As(err, &is):
			writeError(w, http.StatusConflict, is.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, strconv.Itoa(o.ID), redisx.TTLIdempotency).Err()
	}

	// Invoice / confirmation delivery happens out-of-band: the event is
	// published only after the transaction above has committed.
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: strconv.Itoa(o.ID),
		Payload:       kafkax.MustMarshal(orders.NewOrderCreatedPayload(o)),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusCreated, CheckoutResp{
		Success: true, OrderID: o.ID,
		TotalUAH: o.TotalUAH, TotalStars: o.TotalStars, TotalTON: o.TotalTON,
	})
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	os, err := h.Store.Orders(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	os, err := h.Store.OrdersByUser(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) getOne(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.Order(ctx, id)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type updateOrderReq struct {
	Status          orders.Status `json:"status"`
	TransactionHash string        `json:"transaction_hash"`
}

// update persists the sent status as-is; there is no transition table,
// the admin is trusted.
func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err = h.Store.UpdateOrder(ctx, id, req.Status, req.TransactionHash)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
