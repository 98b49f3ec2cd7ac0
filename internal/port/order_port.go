package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error)

	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	// CompleteOrder transitions pending -> completed and stores the provider
	// payment reference. It is a conditional update guarded on the current
	// status; false means this caller lost the transition race.
	CompleteOrder(ctx context.Context, orderID uuid.UUID, providerPaymentID string) (bool, error)

	// CancelOrder transitions pending -> cancelled under the same guard.
	CancelOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}
