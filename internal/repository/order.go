package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quill/go-bookstore-api/internal/model"
)

// ErrNoLines is returned by Checkout when the user's cart has no lines
// (or no cart exists at all).
var ErrNoLines = errors.New("cart has no lines")

type OrderRepository interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*model.Order, error)
	GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

// Checkout converts the user's cart into an order in a single transaction:
// the cart lines are locked together with their books, the total is computed
// from the prices read under that lock, order and order lines are inserted
// with those same prices, and the cart lines are deleted. The row locks
// serialize concurrent checkouts of one cart; whoever comes second finds the
// lines already gone and gets ErrNoLines.
func (r *pgOrderRepo) Checkout(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cartID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoLines
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT cl.book_id, cl.quantity, b.price
		 FROM cart_lines cl
		 JOIN books b ON b.id = cl.book_id
		 WHERE cl.cart_id = $1
		 ORDER BY cl.created_at
		 FOR UPDATE`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		if err := rows.Scan(&line.BookID, &line.Quantity, &line.Price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &model.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     model.OrderStatusCreated,
		TotalPrice: total,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.TotalPrice,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_lines (id, order_id, book_id, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			lines[i].ID, lines[i].OrderID, lines[i].BookID, lines[i].Quantity, lines[i].Price,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order line: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	order.Lines = lines
	return order, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, total_price, created_at, updated_at
		 FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.TotalPrice, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, book_id, quantity, price FROM order_lines WHERE order_id = $1`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.OrderLine
		if err := rows.Scan(&line.ID, &line.BookID, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		line.OrderID = order.ID
		order.Lines = append(order.Lines, line)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, status, total_price, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		o.UserID = userID
		if err := rows.Scan(&o.ID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	return err
}
