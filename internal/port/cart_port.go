package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
)

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)

	// UpsertItem creates the line with quantity = delta if absent, otherwise
	// increments the existing quantity by delta.
	UpsertItem(ctx context.Context, ownerID string, productID uuid.UUID, delta int32) error

	// SetItemQuantity overwrites the quantity; a value <= 0 deletes the line.
	SetItemQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error

	DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
	ClearCart(ctx context.Context, ownerID string) error
}
