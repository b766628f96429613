package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	OrderStatusCreated   = "created"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Phone     string
	Role      string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID          uuid.UUID
	Title       string
	Author      string
	Price       decimal.Decimal
	Description string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine carries the joined book title and current price for cart views.
// The price here is informational; orders snapshot their own prices at
// checkout.
type CartLine struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	BookID    uuid.UUID
	BookTitle string
	BookPrice decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Status     string
	TotalPrice decimal.Decimal
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderLine.Price is the book price frozen at checkout time.
type OrderLine struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	BookID   uuid.UUID
	Quantity int
	Price    decimal.Decimal
}

type OrderPlacedMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
