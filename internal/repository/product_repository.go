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

const getProductSQL = `
SELECT id, exam_name, exam_code, description, price_amount, price_currency, difficulty_level, created_at
FROM products
WHERE id = $1`

const listProductsSQL = `
SELECT id, exam_name, exam_code, description, price_amount, price_currency, difficulty_level, created_at
FROM products
ORDER BY exam_name`

const insertProductSQL = `
INSERT INTO products (exam_name, exam_code, description, price_amount, price_currency, difficulty_level)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

type productRepository struct {
	db DBTX
}

func NewProduct(db DBTX) port.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, getProductSQL, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fmt.Errorf("scanProduct: %w", domain.ErrNotFound)
		}
		return p, fmt.Errorf("scanProduct: %w", err)
	}

	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var products []domain.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanProduct: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return products, nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	var productID uuid.UUID

	row := r.db.QueryRow(ctx, insertProductSQL,
		product.ExamName, product.ExamCode, product.Description,
		product.Price.Amount, product.Price.Currency.String(), product.DifficultyLevel)
	if err := row.Scan(&productID); err != nil {
		return uuid.Nil, fmt.Errorf("row.Scan: %w", err)
	}

	return productID, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p             domain.Product
		priceAmount   decimal.Decimal
		priceCurrency string
	)

	if err := row.Scan(
		&p.ID, &p.ExamName, &p.ExamCode, &p.Description,
		&priceAmount, &priceCurrency, &p.DifficultyLevel, &p.CreatedAt,
	); err != nil {
		return p, err
	}

	price, err := mapMoney(priceAmount, priceCurrency)
	if err != nil {
		return p, fmt.Errorf("mapMoney: %w", err)
	}
	p.Price = price

	return p, nil
}
