package orders

import "fmt"

// ValidateCheckout rejects malformed input before the transaction opens.
func ValidateCheckout(in CheckoutInput) error {
	if in.TelegramUserID <= 0 {
		return &ValidationError{Field: "telegram_user_id", Msg: "must be a positive id"}
	}
	if len(in.Items) == 0 {
		return &ValidationError{Field: "items", Msg: "cart is empty"}
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return &ValidationError{Field: "items", Msg: fmt.Sprintf("line %d: missing product_id", i)}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Field: "items", Msg: fmt.Sprintf("line %d: quantity must be positive", i)}
		}
	}
	if in.PaymentMethod != "" && !KnownPaymentMethod(in.PaymentMethod) {
		return &ValidationError{Field: "payment_method", Msg: "must be stars, ton or cod"}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return &ValidationError{Field: "shipping_address", Msg: err.Error()}
	}
	return nil
}
