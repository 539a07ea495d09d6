package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		price_uah DECIMAL(10, 2) NOT NULL,
		image_url VARCHAR(500),
		images TEXT[],
		category VARCHAR(255),
		quantity INTEGER DEFAULT 0,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS banners (
		id SERIAL PRIMARY KEY,
		image_url VARCHAR(500) NOT NULL,
		link_url VARCHAR(500),
		is_active BOOLEAN DEFAULT true,
		sort_order INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(50) PRIMARY KEY,
		value TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		telegram_user_id BIGINT NOT NULL,
		telegram_username VARCHAR(255),
		total_uah DECIMAL(10, 2) NOT NULL,
		total_stars INTEGER,
		total_ton DECIMAL(10, 4),
		platform VARCHAR(50),
		payment_method VARCHAR(20) DEFAULT 'stars',
		transaction_hash VARCHAR(255),
		status VARCHAR(50) DEFAULT 'pending',
		payment_id VARCHAR(255),
		shipping_method VARCHAR(50),
		shipping_address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER REFERENCES orders(id) ON DELETE CASCADE,
		product_id INTEGER REFERENCES products(id),
		product_name VARCHAR(255) NOT NULL,
		quantity INTEGER NOT NULL,
		price_uah DECIMAL(10, 2) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent, so running it on every start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
