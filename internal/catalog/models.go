package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a product or banner id does not exist.
var ErrNotFound = errors.New("not found")

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceUAH    float64   `json:"price_uah"`
	ImageURL    string    `json:"image_url"`
	Images      []string  `json:"images,omitempty"`
	Category    string    `json:"category,omitempty"`
	Quantity    int       `json:"quantity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.PriceUAH <= 0 {
		return fmt.Errorf("product price must be positive")
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product quantity cannot be negative")
	}
	return nil
}

type Banner struct {
	ID        int       `json:"id"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (b Banner) Validate() error {
	if b.ImageURL == "" {
		return fmt.Errorf("banner image is required")
	}
	return nil
}

type AdminUser struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
