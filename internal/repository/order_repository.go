package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const insertOrderSQL = `
INSERT INTO orders (owner_id, total_amount, total_currency, payment_method)
VALUES ($1, $2, $3, $4)
RETURNING id`

const insertOrderItemSQL = `
INSERT INTO order_items (order_id, product_id, quantity, price_amount, price_currency)
VALUES ($1, $2, $3, $4, $5)`

const getOrderSQL = `
SELECT id, owner_id, total_amount, total_currency, status, payment_method, provider_payment_id,
       created_at, updated_at
FROM orders
WHERE id = $1`

const getOrderItemsSQL = `
SELECT oi.product_id, oi.quantity, oi.price_amount, oi.price_currency, oi.created_at,
       p.exam_name, p.exam_code, p.difficulty_level
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1
ORDER BY oi.created_at`

const listOrdersSQL = `
SELECT o.id, o.owner_id, o.total_amount, o.total_currency, o.status, o.payment_method,
       o.provider_payment_id, o.created_at, o.updated_at,
       oi.product_id, oi.quantity, oi.price_amount, oi.price_currency, oi.created_at,
       p.exam_name, p.exam_code, p.difficulty_level
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
JOIN products p ON p.id = oi.product_id
WHERE o.owner_id = $1
ORDER BY o.created_at DESC, oi.created_at`

const completeOrderSQL = `
UPDATE orders
SET status = 'completed', provider_payment_id = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'`

const cancelOrderSQL = `
UPDATE orders
SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND status = 'pending'`

type orderRepository struct {
	db DBTX
}

func NewOrder(db DBTX) port.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	order, err := withTx(ctx, r.db, func(q DBTX) (domain.Order, error) {
		order, err := scanOrder(q.QueryRow(ctx, getOrderSQL, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("scanOrder: %w", domain.ErrNotFound)
			}
			return o, fmt.Errorf("scanOrder: %w", err)
		}

		items, err := r.getOrderItems(ctx, q, orderID)
		if err != nil {
			return o, fmt.Errorf("r.getOrderItems: %w", err)
		}

		order.Items = items
		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		index  = make(map[uuid.UUID]int)
	)

	for rows.Next() {
		var (
			order         domain.Order
			item          domain.OrderItem
			totalAmount   decimal.Decimal
			totalCurrency string
			status        string
			method        string
			priceAmount   decimal.Decimal
			priceCurrency string
		)

		if err := rows.Scan(
			&order.ID, &order.OwnerID, &totalAmount, &totalCurrency, &status, &method,
			&order.ProviderPaymentID, &order.CreatedAt, &order.UpdatedAt,
			&item.ProductID, &item.Quantity, &priceAmount, &priceCurrency, &item.CreatedAt,
			&item.Product.ExamName, &item.Product.ExamCode, &item.Product.DifficultyLevel,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		price, err := mapMoney(priceAmount, priceCurrency)
		if err != nil {
			return nil, fmt.Errorf("mapMoney: %w", err)
		}
		item.Price = price
		item.Product.ID = item.ProductID
		item.Product.Price = price

		i, seen := index[order.ID]
		if !seen {
			total, err := mapMoney(totalAmount, totalCurrency)
			if err != nil {
				return nil, fmt.Errorf("mapMoney: %w", err)
			}

			orderStatus, err := domain.ToOrderStatus(status)
			if err != nil {
				return nil, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
			}

			paymentMethod, err := domain.ToPaymentMethod(method)
			if err != nil {
				return nil, fmt.Errorf("domain.ToPaymentMethod[%s]: %w", method, err)
			}

			order.Total = total
			order.Status = orderStatus
			order.PaymentMethod = paymentMethod

			index[order.ID] = len(orders)
			i = len(orders)
			orders = append(orders, order)
		}

		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}

	orderID, err := withTx(ctx, r.db, func(q DBTX) (uuid.UUID, error) {
		var orderID uuid.UUID

		row := q.QueryRow(ctx, insertOrderSQL,
			order.OwnerID, order.Total.Amount, order.Total.Currency.String(), string(order.PaymentMethod))
		if err := row.Scan(&orderID); err != nil {
			return uuid.Nil, fmt.Errorf("row.Scan: %w", err)
		}

		for _, item := range order.Items {
			if _, err := q.Exec(ctx, insertOrderItemSQL,
				orderID, item.ProductID, item.Quantity,
				item.Price.Amount, item.Price.Currency.String()); err != nil {
				return uuid.Nil, fmt.Errorf("q.Exec: %w", err)
			}
		}

		return orderID, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("withTx: %w", err)
	}

	return orderID, nil
}

func (r *orderRepository) CompleteOrder(ctx context.Context, orderID uuid.UUID, providerPaymentID string) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.db.Exec(ctx, completeOrderSQL, orderID, providerPaymentID)
	if err != nil {
		return false, fmt.Errorf("db.Exec: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *orderRepository) CancelOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.db.Exec(ctx, cancelOrderSQL, orderID)
	if err != nil {
		return false, fmt.Errorf("db.Exec: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *orderRepository) getOrderItems(ctx context.Context, q DBTX, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, getOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem

	for rows.Next() {
		var (
			item          domain.OrderItem
			priceAmount   decimal.Decimal
			priceCurrency string
		)

		if err := rows.Scan(
			&item.ProductID, &item.Quantity, &priceAmount, &priceCurrency, &item.CreatedAt,
			&item.Product.ExamName, &item.Product.ExamCode, &item.Product.DifficultyLevel,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		price, err := mapMoney(priceAmount, priceCurrency)
		if err != nil {
			return nil, fmt.Errorf("mapMoney: %w", err)
		}
		item.Price = price
		item.Product.ID = item.ProductID
		item.Product.Price = price

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o             domain.Order
		totalAmount   decimal.Decimal
		totalCurrency string
		status        string
		method        string
	)

	if err := row.Scan(
		&o.ID, &o.OwnerID, &totalAmount, &totalCurrency, &status, &method,
		&o.ProviderPaymentID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return o, err
	}

	total, err := mapMoney(totalAmount, totalCurrency)
	if err != nil {
		return o, fmt.Errorf("mapMoney: %w", err)
	}

	orderStatus, err := domain.ToOrderStatus(status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	paymentMethod, err := domain.ToPaymentMethod(method)
	if err != nil {
		return o, fmt.Errorf("domain.ToPaymentMethod[%s]: %w", method, err)
	}

	o.Total = total
	o.Status = orderStatus
	o.PaymentMethod = paymentMethod

	return o, nil
}
