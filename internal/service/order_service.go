package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

// OrderService snapshots a cart into an immutable order. Unit prices are
// captured from the catalog at creation time and frozen on the order.
type OrderService struct {
	orders port.OrderRepository
	carts  port.CartRepository
}

func NewOrder(orders port.OrderRepository, carts port.CartRepository) *OrderService {
	return &OrderService{orders: orders, carts: carts}
}

func (s *OrderService) CreateOrder(ctx context.Context, ownerID string, method domain.PaymentMethod) (domain.Order, error) {
	var o domain.Order

	cart, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return o, fmt.Errorf("carts.GetCart: %w", err)
	}

	if len(cart.Items) == 0 {
		return o, domain.ErrEmptyCart
	}

	items := lo.Map(cart.Items, func(item domain.CartItem, _ int) domain.OrderItem {
		return domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
			Product:   item.Product,
		}
	})

	order := domain.Order{
		OwnerID:       ownerID,
		Total:         cart.Total(),
		Items:         items,
		Status:        domain.OrderStatusPending,
		PaymentMethod: method,
	}

	orderID, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		return o, fmt.Errorf("orders.InsertOrder: %w", err)
	}

	created, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	return created, nil
}

// GetOrder resolves an order for one identity. Another identity's order is
// reported as not found rather than forbidden.
func (s *OrderService) GetOrder(ctx context.Context, ownerID string, orderID uuid.UUID) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if order.OwnerID != ownerID {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("orders.ListOrders: %w", err)
	}

	return orders, nil
}
