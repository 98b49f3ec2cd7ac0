package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const getCartSQL = `
SELECT ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
       p.exam_name, p.exam_code, p.price_amount, p.price_currency, p.difficulty_level
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.owner_id = $1
ORDER BY ci.created_at DESC`

const upsertCartItemSQL = `
INSERT INTO cart_items (owner_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (owner_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()`

const setCartItemQuantitySQL = `
INSERT INTO cart_items (owner_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (owner_id, product_id)
DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`

const deleteCartItemSQL = `
DELETE FROM cart_items
WHERE owner_id = $1 AND product_id = $2`

const clearCartSQL = `
DELETE FROM cart_items
WHERE owner_id = $1`

type cartRepository struct {
	db DBTX
}

func NewCart(db DBTX) port.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	var c domain.Cart

	rows, err := r.db.Query(ctx, getCartSQL, ownerID)
	if err != nil {
		return c, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem

	for rows.Next() {
		var (
			item          domain.CartItem
			priceAmount   decimal.Decimal
			priceCurrency string
		)

		if err := rows.Scan(
			&item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
			&item.Product.ExamName, &item.Product.ExamCode,
			&priceAmount, &priceCurrency, &item.Product.DifficultyLevel,
		); err != nil {
			return c, fmt.Errorf("rows.Scan: %w", err)
		}

		price, err := mapMoney(priceAmount, priceCurrency)
		if err != nil {
			return c, fmt.Errorf("mapMoney: %w", err)
		}

		item.Product.ID = item.ProductID
		item.Product.Price = price

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return c, fmt.Errorf("rows.Err: %w", err)
	}

	return domain.Cart{
		OwnerID: ownerID,
		Items:   items,
	}, nil
}

func (r *cartRepository) UpsertItem(ctx context.Context, ownerID string, productID uuid.UUID, delta int32) error {
	if _, err := r.db.Exec(ctx, upsertCartItemSQL, ownerID, productID, delta); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		if _, err := r.DeleteItem(ctx, ownerID, productID); err != nil {
			return fmt.Errorf("r.DeleteItem: %w", err)
		}
		return nil
	}

	if _, err := r.db.Exec(ctx, setCartItemQuantitySQL, ownerID, productID, quantity); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, deleteCartItemSQL, ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("db.Exec: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *cartRepository) ClearCart(ctx context.Context, ownerID string) error {
	if _, err := r.db.Exec(ctx, clearCartSQL, ownerID); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}
