package orders

import "testing"

func TestShippingAddressValidate(t *testing.T) {
	np := &NovaPoshtaAddress{City: "Київ", Warehouse: "12", Recipient: "Олена К.", Phone: "+380501112233"}

	cases := []struct {
		name    string
		addr    ShippingAddress
		wantErr bool
	}{
		{"zero address", ShippingAddress{}, false},
		{"nova poshta ok", ShippingAddress{Carrier: CarrierNovaPoshta, NovaPoshta: np}, false},
		{"carrier without variant", ShippingAddress{Carrier: CarrierNovaPoshta}, true},
		{"variant without carrier", ShippingAddress{NovaPoshta: np}, true},
		{"unknown carrier", ShippingAddress{Carrier: "glovo"}, true},
		{
			"missing phone",
			ShippingAddress{Carrier: CarrierNovaPoshta, NovaPoshta: &NovaPoshtaAddress{City: "Львів", Warehouse: "3", Recipient: "Іван"}},
			true,
		},
		{
			"ukrposhta ok",
			ShippingAddress{Carrier: CarrierUkrposhta, Ukrposhta: &UkrposhtaAddress{City: "Одеса", Postcode: "65000", Recipient: "Петро", Phone: "+380671234567"}},
			false,
		},
		{
			"meest missing branch",
			ShippingAddress{Carrier: CarrierMeest, Meest: &MeestAddress{City: "Харків", Recipient: "Анна", Phone: "+380931234567"}},
			true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.addr.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestShippingAddressEncodeDecode(t *testing.T) {
	a := ShippingAddress{
		Carrier:    CarrierNovaPoshta,
		NovaPoshta: &NovaPoshtaAddress{City: "Київ", Warehouse: "12", Recipient: "Олена К.", Phone: "+380501112233"},
	}
	s, err := a.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeShippingAddress(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.Carrier != CarrierNovaPoshta || got.NovaPoshta == nil || *got.NovaPoshta != *a.NovaPoshta {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// zero address stores as empty string, decodes back to zero
	s, err = ShippingAddress{}.Encode()
	if err != nil || s != "" {
		t.Fatalf("zero address Encode() = %q, %v", s, err)
	}
	got, err = DecodeShippingAddress("")
	if err != nil || !got.IsZero() {
		t.Fatalf("empty decode = %+v, %v", got, err)
	}
}
