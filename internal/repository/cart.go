package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quill/go-bookstore-api/internal/model"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetCartWithLines(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
	AddLine(ctx context.Context, line *model.CartLine) error
	DeleteLine(ctx context.Context, lineID, userID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	// The unique index on carts.user_id makes the insert race-safe: a
	// concurrent creator wins and we read its row back.
	cart := &model.Cart{}
	query := `INSERT INTO carts (id, user_id, created_at, updated_at)
			  VALUES ($1, $2, NOW(), NOW())
			  ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
			  RETURNING id, user_id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetCartWithLines(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE id = $1`, cartID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT cl.id, cl.cart_id, cl.book_id, b.title, b.price, cl.quantity, cl.created_at, cl.updated_at
		 FROM cart_lines cl
		 JOIN books b ON b.id = cl.book_id
		 WHERE cl.cart_id = $1
		 ORDER BY cl.created_at`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.BookID, &line.BookTitle, &line.BookPrice,
			&line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

func (r *pgCartRepo) AddLine(ctx context.Context, line *model.CartLine) error {
	// Atomic merge: the unique (cart_id, book_id) index guarantees at most
	// one line per book, and the conflict branch folds concurrent adds into
	// a single increment.
	query := `INSERT INTO cart_lines (id, cart_id, book_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (cart_id, book_id) DO UPDATE SET quantity = cart_lines.quantity + $4, updated_at = NOW()
			  RETURNING id, quantity, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, uuid.New(), line.CartID, line.BookID, line.Quantity).
		Scan(&line.ID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteLine(ctx context.Context, lineID, userID uuid.UUID) error {
	// Ownership is part of the predicate so a foreign line id deletes
	// nothing and reports not found.
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM cart_lines cl
		 USING carts c
		 WHERE cl.id = $1 AND cl.cart_id = c.id AND c.user_id = $2`,
		lineID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
