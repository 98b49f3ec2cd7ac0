package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

// CartService keeps the per-identity product/quantity ledger. All operations
// are scoped to one identity; there are no cross-row invariants.
type CartService struct {
	carts    port.CartRepository
	products port.ProductRepository
}

func NewCart(carts port.CartRepository, products port.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) List(ctx context.Context, ownerID string) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.GetCart: %w", err)
	}

	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return fmt.Errorf("products.GetProduct: %w", err)
	}

	if err := s.carts.UpsertItem(ctx, ownerID, productID, quantity); err != nil {
		return fmt.Errorf("carts.UpsertItem: %w", err)
	}

	return nil
}

func (s *CartService) SetQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error {
	if err := s.carts.SetItemQuantity(ctx, ownerID, productID, quantity); err != nil {
		return fmt.Errorf("carts.SetItemQuantity: %w", err)
	}

	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	found, err := s.carts.DeleteItem(ctx, ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("carts.DeleteItem: %w", err)
	}

	return found, nil
}

func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := s.carts.ClearCart(ctx, ownerID); err != nil {
		return fmt.Errorf("carts.ClearCart: %w", err)
	}

	return nil
}
