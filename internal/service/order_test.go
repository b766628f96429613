package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill/go-bookstore-api/internal/model"
	"github.com/quill/go-bookstore-api/internal/repository"
)

// mockOrderRepo reproduces the checkout transaction's observable behavior
// against the cart and book mocks: either the order exists with snapshotted
// prices and the cart is empty, or nothing changed.
type mockOrderRepo struct {
	cartRepo    *mockCartRepo
	bookRepo    *mockBookRepo
	orders      map[uuid.UUID]*model.Order
	failCommits bool
}

func newMockOrderRepo(cartRepo *mockCartRepo, bookRepo *mockBookRepo) *mockOrderRepo {
	return &mockOrderRepo{cartRepo: cartRepo, bookRepo: bookRepo, orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Checkout(_ context.Context, userID uuid.UUID) (*model.Order, error) {
	var cart *model.Cart
	for _, c := range m.cartRepo.carts {
		if c.UserID == userID {
			cart = c
			break
		}
	}
	if cart == nil {
		return nil, repository.ErrNoLines
	}

	var cartLines []*model.CartLine
	for _, line := range m.cartRepo.lines {
		if line.CartID == cart.ID {
			cartLines = append(cartLines, line)
		}
	}
	if len(cartLines) == 0 {
		return nil, repository.ErrNoLines
	}

	if m.failCommits {
		return nil, errors.New("insert order line: connection reset")
	}

	total := decimal.Zero
	order := &model.Order{
		ID: uuid.New(), UserID: userID,
		Status: model.OrderStatusCreated, CreatedAt: time.Now(),
	}
	for _, cl := range cartLines {
		price := m.bookRepo.books[cl.BookID].Price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(cl.Quantity))))
		order.Lines = append(order.Lines, model.OrderLine{
			ID: uuid.New(), OrderID: order.ID, BookID: cl.BookID,
			Quantity: cl.Quantity, Price: price,
		})
		delete(m.cartRepo.lines, cl.ID)
	}
	order.TotalPrice = total
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, nil
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

type checkoutFixture struct {
	cartRepo  *mockCartRepo
	bookRepo  *mockBookRepo
	orderRepo *mockOrderRepo
	cartSvc   *CartService
	orderSvc  *OrderService
	userID    uuid.UUID
}

func newCheckoutFixture() *checkoutFixture {
	cartRepo := newMockCartRepo()
	bookRepo := newMockBookRepo()
	orderRepo := newMockOrderRepo(cartRepo, bookRepo)
	return &checkoutFixture{
		cartRepo:  cartRepo,
		bookRepo:  bookRepo,
		orderRepo: orderRepo,
		cartSvc:   NewCartService(cartRepo, bookRepo),
		orderSvc:  NewOrderService(orderRepo, nil),
		userID:    uuid.New(),
	}
}

func (f *checkoutFixture) addBook(t *testing.T, title string, price float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.bookRepo.books[id] = &model.Book{ID: id, Title: title, Price: decimal.NewFromFloat(price), Stock: 100}
	return id
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.orderSvc.Checkout(context.Background(), f.userID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orderRepo.orders)
}

func TestOrderService_Checkout_CartWithNoLines(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.cartSvc.ViewCart(context.Background(), f.userID)
	require.NoError(t, err)

	_, err = f.orderSvc.Checkout(context.Background(), f.userID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_Checkout_SnapshotsCurrentPrices(t *testing.T) {
	f := newCheckoutFixture()
	bookID := f.addBook(t, "B", 10)

	_, err := f.cartSvc.AddLine(context.Background(), f.userID, bookID, 1)
	require.NoError(t, err)

	// Admin repricing after the add must win at checkout.
	f.bookRepo.setPrice(bookID, decimal.NewFromFloat(15))

	order, err := f.orderSvc.Checkout(context.Background(), f.userID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(15).Equal(order.TotalPrice), "total %s", order.TotalPrice)
	require.Len(t, order.Lines, 1)
	assert.True(t, decimal.NewFromFloat(15).Equal(order.Lines[0].Price))
}

func TestOrderService_Checkout_ClearsCart(t *testing.T) {
	f := newCheckoutFixture()
	bookID := f.addBook(t, "B", 10)

	_, err := f.cartSvc.AddLine(context.Background(), f.userID, bookID, 2)
	require.NoError(t, err)

	_, err = f.orderSvc.Checkout(context.Background(), f.userID)
	require.NoError(t, err)

	cart, err := f.cartSvc.ViewCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	// The cart is now empty, so checking out again fails.
	_, err = f.orderSvc.Checkout(context.Background(), f.userID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_Checkout_FailureLeavesNoPartialState(t *testing.T) {
	f := newCheckoutFixture()
	bookID := f.addBook(t, "B", 10)

	_, err := f.cartSvc.AddLine(context.Background(), f.userID, bookID, 2)
	require.NoError(t, err)

	f.orderRepo.failCommits = true
	_, err = f.orderSvc.Checkout(context.Background(), f.userID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, f.orderRepo.orders)
	cart, err := f.cartSvc.ViewCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestOrderService_Checkout_TotalsAcrossBooks(t *testing.T) {
	f := newCheckoutFixture()
	book1 := f.addBook(t, "First", 20.00)
	book2 := f.addBook(t, "Second", 5.00)

	_, err := f.cartSvc.AddLine(context.Background(), f.userID, book1, 2)
	require.NoError(t, err)
	_, err = f.cartSvc.AddLine(context.Background(), f.userID, book2, 1)
	require.NoError(t, err)

	order, err := f.orderSvc.Checkout(context.Background(), f.userID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromFloat(45.00).Equal(order.TotalPrice), "total %s", order.TotalPrice)
	require.Len(t, order.Lines, 2)
	prices := map[uuid.UUID]decimal.Decimal{}
	for _, line := range order.Lines {
		prices[line.BookID] = line.Price
	}
	assert.True(t, decimal.NewFromFloat(20.00).Equal(prices[book1]))
	assert.True(t, decimal.NewFromFloat(5.00).Equal(prices[book2]))

	cart, err := f.cartSvc.ViewCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestOrderService_GetByID(t *testing.T) {
	f := newCheckoutFixture()
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{
		ID: orderID, UserID: f.userID, Status: model.OrderStatusCreated,
		TotalPrice: decimal.NewFromFloat(99.99), CreatedAt: time.Now(),
	}

	order, err := f.orderSvc.GetByID(context.Background(), orderID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
}

func TestOrderService_GetByID_ForeignOrderNotFound(t *testing.T) {
	f := newCheckoutFixture()
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New()}

	_, err := f.orderSvc.GetByID(context.Background(), orderID, f.userID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.orderSvc.GetByID(context.Background(), uuid.New(), f.userID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
