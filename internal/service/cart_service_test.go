package service_test

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/service"
)

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ownerID := gofakeit.UUID()

	productID, err := store.Products().InsertProduct(ctx, domain.Product{
		ExamName: gofakeit.JobTitle(),
		Price:    domain.Money{Amount: decimal.NewFromInt(10), Currency: currency.USD},
	})
	require.NoError(t, err)

	carts := service.NewCart(store.Carts(), store.Products())

	tests := []struct {
		name      string
		productID uuid.UUID
		quantity  int32
		wantErr   bool
	}{
		{name: "valid add", productID: productID, quantity: 2},
		{name: "zero quantity rejected", productID: productID, quantity: 0, wantErr: true},
		{name: "negative quantity rejected", productID: productID, quantity: -1, wantErr: true},
		{name: "unknown product rejected", productID: uuid.New(), quantity: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := carts.AddItem(ctx, ownerID, tt.productID, tt.quantity)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	cart, err := carts.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(2), cart.Items[0].Quantity)
	assert.True(t, cart.Total().Amount.Equal(decimal.NewFromInt(20)))
}

func TestSetQuantityRemovesLine(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ownerID := gofakeit.UUID()

	productID, err := store.Products().InsertProduct(ctx, domain.Product{
		ExamName: gofakeit.JobTitle(),
		Price:    domain.Money{Amount: decimal.NewFromInt(10), Currency: currency.USD},
	})
	require.NoError(t, err)

	carts := service.NewCart(store.Carts(), store.Products())
	require.NoError(t, carts.AddItem(ctx, ownerID, productID, 3))

	require.NoError(t, carts.SetQuantity(ctx, ownerID, productID, 0))

	cart, err := carts.List(ctx, ownerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
