package orders

import (
	"encoding/json"
	"strconv"
	"time"
)

const EventOrderCreated = "OrderCreated"

// Envelope is the versioned wrapper every published event travels in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ItemSnapshot mirrors an order_items row inside an event payload.
type ItemSnapshot struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	PriceUAH    float64 `json:"price_uah"`
}

// OrderCreatedPayload is published after the placement transaction has
// committed; the bot consumes it to send the invoice or confirmation
// out-of-band.
type OrderCreatedPayload struct {
	OrderID          int            `json:"order_id"`
	TelegramUserID   int64          `json:"telegram_user_id"`
	TelegramUsername string         `json:"telegram_username,omitempty"`
	TotalUAH         float64        `json:"total_uah"`
	TotalStars       int            `json:"total_stars"`
	TotalTON         float64        `json:"total_ton"`
	Platform         string         `json:"platform"`
	PaymentMethod    PaymentMethod  `json:"payment_method"`
	Items            []ItemSnapshot `json:"items"`
}

func NewOrderCreatedPayload(o Order) OrderCreatedPayload {
	items := make([]ItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemSnapshot{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			PriceUAH:    it.PriceUAH,
		})
	}
	return OrderCreatedPayload{
		OrderID:          o.ID,
		TelegramUserID:   o.TelegramUserID,
		TelegramUsername: o.TelegramUsername,
		TotalUAH:         o.TotalUAH,
		TotalStars:       o.TotalStars,
		TotalTON:         o.TotalTON,
		Platform:         o.Platform,
		PaymentMethod:    o.PaymentMethod,
		Items:            items,
	}
}

// PartitionKey keeps all events of one order on one partition, so they
// arrive in order.
func PartitionKey(orderID int) []byte {
	return []byte(strconv.Itoa(orderID))
}
