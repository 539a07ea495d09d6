package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStore interface {
	Products(ctx context.Context, includeUnavailable bool) ([]Product, error)
	Product(ctx context.Context, id int) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type ProductRepo struct{ DB *pgxpool.Pool }

var _ ProductStore = (*ProductRepo)(nil)

const productColumns = `id, name, COALESCE(description,''), price_uah, COALESCE(image_url,''),
	COALESCE(images,'{}'), COALESCE(category,''), COALESCE(quantity,0), is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceUAH, &p.ImageURL,
		&p.Images, &p.Category, &p.Quantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Products lists the catalog. The public storefront hides inactive and
// out-of-stock products; the admin panel passes includeUnavailable to see
// everything, soft-deleted rows included.
func (r *ProductRepo) Products(ctx context.Context, includeUnavailable bool) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if !includeUnavailable {
		q += ` WHERE is_active = true AND quantity > 0`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) Product(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products (name, description, price_uah, image_url, images, category, quantity)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+productColumns,
		p.Name, p.Description, p.PriceUAH, p.ImageURL, p.Images, p.Category, p.Quantity))
}

// UpdateProduct full-replaces the mutable fields, quantity included
// (admin edits set stock absolutely; only checkout decrements it).
func (r *ProductRepo) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	updated, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price_uah=$4, image_url=$5, images=$6, category=$7,
		    quantity=$8, updated_at=CURRENT_TIMESTAMP
		WHERE id=$1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.PriceUAH, p.ImageURL, p.Images, p.Category, p.Quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return updated, err
}

// DeleteProduct is a soft delete: the row stays for order item history,
// it just disappears from public listings.
func (r *ProductRepo) DeleteProduct(ctx context.Context, id int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET is_active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
