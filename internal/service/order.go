package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/quill/go-bookstore-api/internal/model"
	"github.com/quill/go-bookstore-api/internal/repository"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
)

type OrderService struct {
	orderRepo repository.OrderRepository
	amqpCh    *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, amqpCh: amqpCh}
}

// Checkout turns the user's cart into an order. The conversion runs as a
// single repository transaction, so either the order and all its lines exist
// and the cart is empty, or nothing changed.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.Checkout(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoLines) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// Hand the order to the fulfillment worker.
	msg, _ := json.Marshal(model.OrderPlacedMessage{OrderID: order.ID, UserID: userID})
	if s.amqpCh != nil {
		_ = s.amqpCh.PublishWithContext(ctx, "", "orders", false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
		})
	}

	return order, nil
}

// GetByID is owner-scoped: an order belonging to another user is reported as
// not found rather than forbidden, so order ids do not leak.
func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}
