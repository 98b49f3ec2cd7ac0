package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const insertPaymentSQL = `
INSERT INTO payments (order_id, amount, currency, status, payment_method, stripe_id, paypal_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

const listPaymentsSQL = `
SELECT id, order_id, amount, currency, status, payment_method, stripe_id, paypal_id, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at`

type paymentRepository struct {
	db DBTX
}

func NewPayment(db DBTX) port.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) InsertPayment(ctx context.Context, payment domain.Payment) (uuid.UUID, error) {
	var paymentID uuid.UUID

	row := r.db.QueryRow(ctx, insertPaymentSQL,
		payment.OrderID, payment.Amount.Amount, payment.Amount.Currency.String(),
		string(payment.Status), string(payment.Method), payment.StripeID, payment.PaypalID)
	if err := row.Scan(&paymentID); err != nil {
		return uuid.Nil, fmt.Errorf("row.Scan: %w", err)
	}

	return paymentID, nil
}

func (r *paymentRepository) ListPayments(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, listPaymentsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment

	for rows.Next() {
		var (
			p        domain.Payment
			amount   decimal.Decimal
			currency string
			status   string
			method   string
		)

		if err := rows.Scan(
			&p.ID, &p.OrderID, &amount, &currency, &status, &method,
			&p.StripeID, &p.PaypalID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		money, err := mapMoney(amount, currency)
		if err != nil {
			return nil, fmt.Errorf("mapMoney: %w", err)
		}

		p.Amount = money
		p.Status = domain.PaymentStatus(status)
		p.Method = domain.PaymentMethod(method)

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return payments, nil
}
