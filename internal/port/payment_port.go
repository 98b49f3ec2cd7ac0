package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
)

type PaymentRepository interface {
	InsertPayment(ctx context.Context, payment domain.Payment) (uuid.UUID, error)
	ListPayments(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error)
}
