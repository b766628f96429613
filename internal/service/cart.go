package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quill/go-bookstore-api/internal/model"
	"github.com/quill/go-bookstore-api/internal/repository"
)

var ErrCartLineNotFound = errors.New("cart line not found")

type CartService struct {
	cartRepo repository.CartRepository
	bookRepo repository.BookRepository
}

func NewCartService(cartRepo repository.CartRepository, bookRepo repository.BookRepository) *CartService {
	return &CartService{cartRepo: cartRepo, bookRepo: bookRepo}
}

func (s *CartService) ViewCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.cartRepo.GetCartWithLines(ctx, cart.ID)
}

// AddLine resolves the user's cart and merges the book into it: an existing
// line for the same book has its quantity incremented, otherwise a new line
// is inserted.
func (s *CartService) AddLine(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*model.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	line := &model.CartLine{
		CartID:    cart.ID,
		BookID:    bookID,
		BookTitle: book.Title,
		BookPrice: book.Price,
		Quantity:  quantity,
	}
	if err := s.cartRepo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}
	return line, nil
}

// RemoveLine deletes a line only when it belongs to the user's own cart;
// foreign line ids report not found.
func (s *CartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	err := s.cartRepo.DeleteLine(ctx, lineID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartLineNotFound
		}
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}
