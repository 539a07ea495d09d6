package orders

import (
	"time"

	"github.com/vklymiuk/tg-star-shop/internal/pricing"
)

type PaymentMethod string

const (
	PayStars PaymentMethod = "stars"
	PayTON   PaymentMethod = "ton"
	PayCOD   PaymentMethod = "cod"
)

func KnownPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayStars, PayTON, PayCOD:
		return true
	}
	return false
}

// CartLine is one requested position of a checkout.
type CartLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// CheckoutInput carries everything the placement transaction needs.
// Prices are deliberately absent: unit prices are always read from the
// locked product rows, never trusted from the client.
type CheckoutInput struct {
	TelegramUserID   int64           `json:"telegram_user_id"`
	TelegramUsername string          `json:"telegram_username"`
	Items            []CartLine      `json:"items"`
	Platform         string          `json:"platform"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	ShippingMethod   string          `json:"shipping_method"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	TransactionHash  string          `json:"transaction_hash"`
}

// ConvertFunc turns the UAH total computed inside the transaction into
// the alternate-currency totals stored on the order row.
type ConvertFunc func(totalUAH float64) (stars int, ton float64)

// Converter builds a ConvertFunc from a stars policy and the cart's
// platform tag.
func Converter(policy pricing.StarsPolicy, platformTag string) ConvertFunc {
	platform := pricing.DetectPlatform(platformTag)
	return func(totalUAH float64) (int, float64) {
		return policy.Stars(totalUAH, platform), pricing.ToTON(totalUAH)
	}
}

type Order struct {
	ID               int             `json:"id"`
	TelegramUserID   int64           `json:"telegram_user_id"`
	TelegramUsername string          `json:"telegram_username,omitempty"`
	TotalUAH         float64         `json:"total_uah"`
	TotalStars       int             `json:"total_stars"`
	TotalTON         float64         `json:"total_ton"`
	Platform         string          `json:"platform"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	TransactionHash  string          `json:"transaction_hash,omitempty"`
	Status           Status          `json:"status"`
	PaymentID        string          `json:"payment_id,omitempty"`
	ShippingMethod   string          `json:"shipping_method,omitempty"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []OrderItem     `json:"items"`
}

// OrderItem snapshots name and unit price at purchase time, so later
// product edits or soft deletes do not rewrite history.
type OrderItem struct {
	ID          int     `json:"id"`
	OrderID     int     `json:"order_id"`
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	PriceUAH    float64 `json:"price_uah"`
}
