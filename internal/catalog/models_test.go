package catalog

import (
	"encoding/json"
	"testing"
)

func TestProductValidate(t *testing.T) {
	ok := Product{Name: "Кружка", PriceUAH: 100, Quantity: 3}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid product rejected: %v", err)
	}

	cases := []struct {
		name string
		p    Product
	}{
		{"no name", Product{PriceUAH: 100}},
		{"zero price", Product{Name: "x", PriceUAH: 0}},
		{"negative price", Product{Name: "x", PriceUAH: -5}},
		{"negative quantity", Product{Name: "x", PriceUAH: 10, Quantity: -1}},
	}
	for _, c := range cases {
		if err := c.p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestBannerValidate(t *testing.T) {
	if err := (Banner{ImageURL: "/uploads/1.png"}).Validate(); err != nil {
		t.Fatalf("valid banner rejected: %v", err)
	}
	if err := (Banner{}).Validate(); err == nil {
		t.Error("banner without image accepted")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := DefaultSettings()
	if !s.EnableStars || s.EnableTON {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	s.TONWallet = "UQARnCdfRw0VcT86ApqHJEdMGzQU3T_MnPbNs71A6nOXcF91"
	s.EnableTON = true

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var got ShopSettings
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("round trip mismatch: %+v != %+v", got, s)
	}
}
