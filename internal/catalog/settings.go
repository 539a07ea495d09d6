package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vklymiuk/tg-star-shop/internal/redisx"
)

const settingsKey = "shop_settings"

// ShopSettings is the single JSON document the storefront reads on every
// page open: payment toggles, the TON receiving wallet and the interface
// icon set.
type ShopSettings struct {
	EnableStars bool   `json:"enable_stars"`
	EnableTON   bool   `json:"enable_ton"`
	TONWallet   string `json:"ton_wallet"`

	IconHome       string `json:"icon_home,omitempty"`
	IconCart       string `json:"icon_cart,omitempty"`
	IconProfile    string `json:"icon_profile,omitempty"`
	IconPay        string `json:"icon_pay,omitempty"`
	IconNovaPoshta string `json:"icon_novaposhta,omitempty"`
	IconUkrposhta  string `json:"icon_ukrposhta,omitempty"`
	IconMeest      string `json:"icon_meest,omitempty"`
}

func DefaultSettings() ShopSettings {
	return ShopSettings{
		EnableStars: true,
		EnableTON:   false,
	}
}

type SettingsStore interface {
	Settings(ctx context.Context) (ShopSettings, error)
	UpdateSettings(ctx context.Context, s ShopSettings) (ShopSettings, error)
}

type SettingsRepo struct{ DB *pgxpool.Pool }

var _ SettingsStore = (*SettingsRepo)(nil)

func (r *SettingsRepo) Settings(ctx context.Context) (ShopSettings, error) {
	var raw string
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(value,'') FROM settings WHERE key=$1`, settingsKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return ShopSettings{}, err
	}
	var s ShopSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ShopSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// UpdateSettings full-replaces the document.
func (r *SettingsRepo) UpdateSettings(ctx context.Context, s ShopSettings) (ShopSettings, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return ShopSettings{}, err
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = CURRENT_TIMESTAMP`,
		settingsKey, string(raw))
	if err != nil {
		return ShopSettings{}, err
	}
	return s, nil
}

// EnsureDefaults seeds the settings row on first start.
func (r *SettingsRepo) EnsureDefaults(ctx context.Context) error {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM settings WHERE key=$1)`, settingsKey).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = r.UpdateSettings(ctx, DefaultSettings())
	return err
}

// CachedSettings fronts a SettingsStore with a Redis TTL cache; the
// storefront hits settings on every launch, the row almost never changes.
type CachedSettings struct {
	Store SettingsStore
	Redis *redis.Client
}

var _ SettingsStore = (*CachedSettings)(nil)

func (c *CachedSettings) cacheKey() string {
	return fmt.Sprintf(redisx.KeySettings, settingsKey)
}

func (c *CachedSettings) Settings(ctx context.Context) (ShopSettings, error) {
	if raw, err := c.Redis.Get(ctx, c.cacheKey()).Result(); err == nil && raw != "" {
		var s ShopSettings
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s, nil
		}
	}
	s, err := c.Store.Settings(ctx)
	if err != nil {
		return ShopSettings{}, err
	}
	if raw, err := json.Marshal(s); err == nil {
		if err := c.Redis.Set(ctx, c.cacheKey(), raw, redisx.TTLSettings).Err(); err != nil {
			log.Printf("settings cache set: %v", err)
		}
	}
	return s, nil
}

func (c *CachedSettings) UpdateSettings(ctx context.Context, s ShopSettings) (ShopSettings, error) {
	updated, err := c.Store.UpdateSettings(ctx, s)
	if err != nil {
		return ShopSettings{}, err
	}
	if err := c.Redis.Del(ctx, c.cacheKey()).Err(); err != nil {
		log.Printf("settings cache invalidate: %v", err)
	}
	return updated, nil
}
