package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is what the HTTP layer and the bot depend on; Repo is the pgx
// implementation, tests substitute an in-memory one.
type Store interface {
	PlaceOrder(ctx context.Context, in CheckoutInput, convert ConvertFunc) (Order, error)
	Order(ctx context.Context, id int) (Order, error)
	Orders(ctx context.Context) ([]Order, error)
	OrdersByUser(ctx context.Context, telegramUserID int64) ([]Order, error)
	UpdateOrder(ctx context.Context, id int, status Status, transactionHash string) error
	MarkPaid(ctx context.Context, id int, paymentID string) error
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

// PlaceOrder runs the whole placement as one transaction: every touched
// product row is locked FOR UPDATE, stock is checked and decremented, the
// order and its item snapshots are inserted, and everything commits
// atomically. Any failure rolls the whole thing back, so a cart either
// fully reserves its stock or leaves the tables untouched.
//
// Rows are locked in ascending product id order regardless of cart order,
// so two carts touching the same products can never deadlock each other.
// Item rows are still inserted in the cart's own order.
func (r *Repo) PlaceOrder(ctx context.Context, in CheckoutInput, convert ConvertFunc) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type locked struct {
		name      string
		price     float64
		remaining int
	}
	byID := map[int]*locked{}

	lockOrder := make([]CartLine, len(in.Items))
	copy(lockOrder, in.Items)
	sort.SliceStable(lockOrder, func(i, j int) bool { return lockOrder[i].ProductID < lockOrder[j].ProductID })

	for _, line := range lockOrder {
		lp, ok := byID[line.ProductID]
		if !ok {
			lp = &locked{}
			err := tx.QueryRow(ctx,
				`SELECT name, price_uah, quantity FROM products WHERE id=$1 FOR UPDATE`,
				line.ProductID).Scan(&lp.name, &lp.price, &lp.remaining)
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, &NotFoundError{ProductID: line.ProductID}
			}
			if err != nil {
				return Order{}, fmt.Errorf("lock product %d: %w", line.ProductID, err)
			}
			byID[line.ProductID] = lp
		}
		if lp.remaining < line.Quantity {
			return Order{}, &InsufficientStockError{
				ProductID: line.ProductID,
				Name:      lp.name,
				Requested: line.Quantity,
				Available: lp.remaining,
			}
		}
		lp.remaining -= line.Quantity

		if _, err := tx.Exec(ctx,
			`UPDATE products SET quantity = quantity - $2, updated_at = CURRENT_TIMESTAMP WHERE id=$1`,
			line.ProductID, line.Quantity); err != nil {
			return Order{}, fmt.Errorf("decrement product %d: %w", line.ProductID, err)
		}
	}

	var totalUAH float64
	for _, line := range in.Items {
		totalUAH += byID[line.ProductID].price * float64(line.Quantity)
	}
	totalStars, totalTON := convert(totalUAH)

	method := in.PaymentMethod
	if method == "" {
		method = PayStars
	}
	status := StatusPending
	if method == PayCOD {
		status = StatusPendingCOD
	}
	addr, err := in.ShippingAddress.Encode()
	if err != nil {
		return Order{}, err
	}

	o := Order{
		TelegramUserID:   in.TelegramUserID,
		TelegramUsername: in.TelegramUsername,
		TotalUAH:         totalUAH,
		TotalStars:       totalStars,
		TotalTON:         totalTON,
		Platform:         in.Platform,
		PaymentMethod:    method,
		TransactionHash:  in.TransactionHash,
		Status:           status,
		ShippingMethod:   in.ShippingMethod,
		ShippingAddress:  in.ShippingAddress,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (telegram_user_id, telegram_username, total_uah, total_stars, total_ton,
		                    platform, payment_method, transaction_hash, status, shipping_method, shipping_address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		o.TelegramUserID, o.TelegramUsername, o.TotalUAH, o.TotalStars, o.TotalTON,
		o.Platform, string(o.PaymentMethod), o.TransactionHash, string(o.Status), o.ShippingMethod, addr,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range in.Items {
		lp := byID[line.ProductID]
		item := OrderItem{
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: lp.name,
			Quantity:    line.Quantity,
			PriceUAH:    lp.price,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price_uah)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.PriceUAH,
		).Scan(&item.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

const orderColumns = `id, telegram_user_id, COALESCE(telegram_username,''), total_uah,
	COALESCE(total_stars,0), COALESCE(total_ton,0), COALESCE(platform,''),
	COALESCE(payment_method,'stars'), COALESCE(transaction_hash,''), COALESCE(status,'pending'),
	COALESCE(payment_id,''), COALESCE(shipping_method,''), COALESCE(shipping_address,''), created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var method, status, addr string
	err := row.Scan(&o.ID, &o.TelegramUserID, &o.TelegramUsername, &o.TotalUAH,
		&o.TotalStars, &o.TotalTON, &o.Platform,
		&method, &o.TransactionHash, &status,
		&o.PaymentID, &o.ShippingMethod, &addr, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	o.PaymentMethod = PaymentMethod(method)
	o.Status = Status(status)
	if o.ShippingAddress, err = DecodeShippingAddress(addr); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) Order(ctx context.Context, id int) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) items(ctx context.Context, orderID int) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price_uah
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PriceUAH); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) Orders(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) OrdersByUser(ctx context.Context, telegramUserID int64) ([]Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE telegram_user_id=$1 ORDER BY created_at DESC`,
		telegramUserID)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateOrder persists whatever status the admin sent; transitions are
// not validated. An empty transactionHash leaves the stored one alone.
func (r *Repo) UpdateOrder(ctx context.Context, id int, status Status, transactionHash string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    transaction_hash = CASE WHEN $3 = '' THEN transaction_hash ELSE $3 END
		WHERE id = $1`,
		id, string(status), transactionHash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) MarkPaid(ctx context.Context, id int, paymentID string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2, payment_id=$3 WHERE id=$1`,
		id, string(StatusPaid), paymentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
