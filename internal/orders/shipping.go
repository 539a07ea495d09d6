package orders

import (
	"encoding/json"
	"fmt"
)

type Carrier string

const (
	CarrierNone       Carrier = ""
	CarrierNovaPoshta Carrier = "nova_poshta"
	CarrierUkrposhta  Carrier = "ukrposhta"
	CarrierMeest      Carrier = "meest"
)

type NovaPoshtaAddress struct {
	City      string `json:"city"`
	Warehouse string `json:"warehouse"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
}

type UkrposhtaAddress struct {
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Street    string `json:"street"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
}

type MeestAddress struct {
	City      string `json:"city"`
	Branch    string `json:"branch"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
}

// ShippingAddress is a tagged union over the supported carriers. Exactly
// the variant matching Carrier may be set; CarrierNone means pickup or a
// digital order with no delivery at all.
type ShippingAddress struct {
	Carrier    Carrier            `json:"carrier"`
	NovaPoshta *NovaPoshtaAddress `json:"nova_poshta,omitempty"`
	Ukrposhta  *UkrposhtaAddress  `json:"ukrposhta,omitempty"`
	Meest      *MeestAddress      `json:"meest,omitempty"`
}

func (a ShippingAddress) IsZero() bool {
	return a.Carrier == CarrierNone && a.NovaPoshta == nil && a.Ukrposhta == nil && a.Meest == nil
}

func (a ShippingAddress) Validate() error {
	switch a.Carrier {
	case CarrierNone:
		if a.NovaPoshta != nil || a.Ukrposhta != nil || a.Meest != nil {
			return fmt.Errorf("shipping address set without a carrier")
		}
		return nil
	case CarrierNovaPoshta:
		if a.NovaPoshta == nil {
			return fmt.Errorf("carrier %s requires a nova_poshta address", a.Carrier)
		}
		return requireFields(map[string]string{
			"city":      a.NovaPoshta.City,
			"warehouse": a.NovaPoshta.Warehouse,
			"recipient": a.NovaPoshta.Recipient,
			"phone":     a.NovaPoshta.Phone,
		})
	case CarrierUkrposhta:
		if a.Ukrposhta == nil {
			return fmt.Errorf("carrier %s requires an ukrposhta address", a.Carrier)
		}
		return requireFields(map[string]string{
			"city":      a.Ukrposhta.City,
			"postcode":  a.Ukrposhta.Postcode,
			"recipient": a.Ukrposhta.Recipient,
			"phone":     a.Ukrposhta.Phone,
		})
	case CarrierMeest:
		if a.Meest == nil {
			return fmt.Errorf("carrier %s requires a meest address", a.Carrier)
		}
		return requireFields(map[string]string{
			"city":      a.Meest.City,
			"branch":    a.Meest.Branch,
			"recipient": a.Meest.Recipient,
			"phone":     a.Meest.Phone,
		})
	}
	return fmt.Errorf("unknown carrier %q", a.Carrier)
}

func requireFields(fields map[string]string) error {
	for name, v := range fields {
		if v == "" {
			return fmt.Errorf("missing shipping field %s", name)
		}
	}
	return nil
}

// Encode renders the address as the JSON stored in the orders table.
// A zero address encodes as the empty string.
func (a ShippingAddress) Encode() (string, error) {
	if a.IsZero() {
		return "", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeShippingAddress(s string) (ShippingAddress, error) {
	var a ShippingAddress
	if s == "" {
		return a, nil
	}
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return a, fmt.Errorf("decode shipping address: %w", err)
	}
	return a, nil
}
