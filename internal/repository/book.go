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

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgBookRepo struct{ pool *pgxpool.Pool }

func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &pgBookRepo{pool: pool}
}

func (r *pgBookRepo) Create(ctx context.Context, book *model.Book) error {
	book.ID = uuid.New()
	query := `INSERT INTO books (id, title, author, price, description, stock, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		book.ID, book.Title, book.Author, book.Price, book.Description, book.Stock,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *pgBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := `SELECT id, title, author, price, description, stock, created_at, updated_at
			  FROM books WHERE id = $1`
	b := &model.Book{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Price, &b.Description, &b.Stock, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *pgBookRepo) List(ctx context.Context) ([]model.Book, error) {
	query := `SELECT id, title, author, price, description, stock, created_at, updated_at
			  FROM books ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Price, &b.Description, &b.Stock, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *pgBookRepo) Update(ctx context.Context, book *model.Book) error {
	query := `UPDATE books SET title=$2, author=$3, price=$4, description=$5, stock=$6, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		book.ID, book.Title, book.Author, book.Price, book.Description, book.Stock,
	).Scan(&book.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (r *pgBookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
