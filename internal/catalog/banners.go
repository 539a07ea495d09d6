package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BannerStore interface {
	Banners(ctx context.Context) ([]Banner, error)
	CreateBanner(ctx context.Context, b Banner) (Banner, error)
	UpdateBanner(ctx context.Context, b Banner) (Banner, error)
	DeleteBanner(ctx context.Context, id int) error
}

type BannerRepo struct{ DB *pgxpool.Pool }

var _ BannerStore = (*BannerRepo)(nil)

const bannerColumns = `id, image_url, COALESCE(link_url,''), is_active, sort_order, created_at`

func scanBanner(row pgx.Row) (Banner, error) {
	var b Banner
	err := row.Scan(&b.ID, &b.ImageURL, &b.LinkURL, &b.IsActive, &b.SortOrder, &b.CreatedAt)
	return b, err
}

func (r *BannerRepo) Banners(ctx context.Context) ([]Banner, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+bannerColumns+` FROM banners
		WHERE is_active = true
		ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Banner
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BannerRepo) CreateBanner(ctx context.Context, b Banner) (Banner, error) {
	if err := b.Validate(); err != nil {
		return Banner{}, err
	}
	return scanBanner(r.DB.QueryRow(ctx, `
		INSERT INTO banners (image_url, link_url, sort_order)
		VALUES ($1,$2,$3)
		RETURNING `+bannerColumns,
		b.ImageURL, b.LinkURL, b.SortOrder))
}

func (r *BannerRepo) UpdateBanner(ctx context.Context, b Banner) (Banner, error) {
	if err := b.Validate(); err != nil {
		return Banner{}, err
	}
	updated, err := scanBanner(r.DB.QueryRow(ctx, `
		UPDATE banners SET image_url=$2, link_url=$3, sort_order=$4
		WHERE id=$1
		RETURNING `+bannerColumns,
		b.ID, b.ImageURL, b.LinkURL, b.SortOrder))
	if errors.Is(err, pgx.ErrNoRows) {
		return Banner{}, ErrNotFound
	}
	return updated, err
}

func (r *BannerRepo) DeleteBanner(ctx context.Context, id int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE banners SET is_active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
