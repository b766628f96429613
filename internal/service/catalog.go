package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quill/go-bookstore-api/internal/dto"
	"github.com/quill/go-bookstore-api/internal/model"
	"github.com/quill/go-bookstore-api/internal/repository"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrNegativeStock = errors.New("stock must not be negative")
)

const bookCacheTTL = 60 * time.Second

type CatalogService struct {
	bookRepo    repository.BookRepository
	redisClient *redis.Client
}

func NewCatalogService(bookRepo repository.BookRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{bookRepo: bookRepo, redisClient: redisClient}
}

func (s *CatalogService) Create(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if req.Stock < 0 {
		return nil, ErrNegativeStock
	}

	book := &model.Book{
		Title:       req.Title,
		Author:      req.Author,
		Price:       req.Price,
		Description: req.Description,
		Stock:       req.Stock,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error) {
	cacheKey := "book:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.BookResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	resp := toBookResponse(book)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, bookCacheTTL)
		}
	}

	return &resp, nil
}

func (s *CatalogService) List(ctx context.Context) (*dto.BookListResponse, error) {
	books, err := s.bookRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	items := make([]dto.BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResponse(&b))
	}
	return &dto.BookListResponse{Books: items, Total: len(items)}, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		book.Price = *req.Price
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrNegativeStock
		}
		book.Stock = *req.Stock
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "book:"+id.String())
	}
}

func toBookResponse(b *model.Book) dto.BookResponse {
	return dto.BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Price:       b.Price,
		Description: b.Description,
		Stock:       b.Stock,
		CreatedAt:   b.CreatedAt,
	}
}
