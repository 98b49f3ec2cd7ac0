package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)
}
