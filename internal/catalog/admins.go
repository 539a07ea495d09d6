package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type AdminStore interface {
	AdminByUsername(ctx context.Context, username string) (AdminUser, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (AdminUser, error)
}

type AdminRepo struct{ DB *pgxpool.Pool }

var _ AdminStore = (*AdminRepo)(nil)

func (r *AdminRepo) AdminByUsername(ctx context.Context, username string) (AdminUser, error) {
	var a AdminUser
	err := r.DB.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admin_users WHERE username=$1`,
		username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	return a, err
}

func (r *AdminRepo) CreateAdmin(ctx context.Context, username, passwordHash string) (AdminUser, error) {
	var a AdminUser
	err := r.DB.QueryRow(ctx, `
		INSERT INTO admin_users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`,
		username, passwordHash).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

// EnsureDefaultAdmin creates the bootstrap admin account if no account
// with that username exists yet.
func (r *AdminRepo) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	_, err := r.AdminByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := r.CreateAdmin(ctx, username, string(hash)); err != nil {
		return err
	}
	log.Printf("default admin %q created", username)
	return nil
}
