package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const insertDownloadSQL = `
INSERT INTO downloads (owner_id, product_id, token, expires_at, download_count, max_downloads, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// redeemDownloadSQL is the single-statement redemption: the counter increment
// and the maybe-deactivate happen in one conditional update, so two
// concurrent redemptions can never both consume the last slot.
const redeemDownloadSQL = `
UPDATE downloads
SET download_count = download_count + 1,
    is_active = download_count + 1 < max_downloads
WHERE token = $1
  AND is_active
  AND expires_at > now()
  AND download_count < max_downloads
RETURNING id, owner_id, product_id, token, expires_at, download_count, max_downloads, is_active, created_at`

const classifyDownloadSQL = `
SELECT download_count, max_downloads, is_active, expires_at
FROM downloads
WHERE token = $1`

const listDownloadsSQL = `
SELECT d.id, d.owner_id, d.product_id, d.token, d.expires_at,
       d.download_count, d.max_downloads, d.is_active, d.created_at,
       p.exam_name, p.exam_code, p.price_amount, p.price_currency, p.difficulty_level
FROM downloads d
JOIN products p ON p.id = d.product_id
WHERE d.owner_id = $1
ORDER BY d.created_at DESC`

const deactivateDownloadSQL = `
UPDATE downloads
SET is_active = false
WHERE id = $1`

type downloadRepository struct {
	db DBTX
}

func NewDownload(db DBTX) port.DownloadRepository {
	return &downloadRepository{db: db}
}

func (r *downloadRepository) InsertDownload(ctx context.Context, download domain.Download) (uuid.UUID, error) {
	var downloadID uuid.UUID

	row := r.db.QueryRow(ctx, insertDownloadSQL,
		download.OwnerID, download.ProductID, download.Token, download.ExpiresAt,
		download.DownloadCount, download.MaxDownloads, download.Active)
	if err := row.Scan(&downloadID); err != nil {
		return uuid.Nil, fmt.Errorf("row.Scan: %w", err)
	}

	return downloadID, nil
}

func (r *downloadRepository) Redeem(ctx context.Context, token string) (domain.Download, error) {
	var d domain.Download

	row := r.db.QueryRow(ctx, redeemDownloadSQL, token)
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.ProductID, &d.Token, &d.ExpiresAt,
		&d.DownloadCount, &d.MaxDownloads, &d.Active, &d.CreatedAt,
	)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return d, fmt.Errorf("row.Scan: %w", err)
	}

	return d, r.classifyRedeemMiss(ctx, token)
}

// classifyRedeemMiss explains why the conditional update matched no row.
// An exhausted entitlement is reported as such even though exhaustion also
// deactivated it; every other miss collapses into not-found so expired
// tokens are indistinguishable from ones that never existed.
func (r *downloadRepository) classifyRedeemMiss(ctx context.Context, token string) error {
	var (
		count     int32
		limit     int32
		active    bool
		expiresAt time.Time
	)

	row := r.db.QueryRow(ctx, classifyDownloadSQL, token)
	if err := row.Scan(&count, &limit, &active, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("row.Scan: %w", err)
	}

	if !expiresAt.After(time.Now()) {
		return domain.ErrNotFound
	}

	if count >= limit {
		return fmt.Errorf("%w: %d of %d used", domain.ErrLimitExceeded, count, limit)
	}

	return domain.ErrNotFound
}

func (r *downloadRepository) ListDownloads(ctx context.Context, ownerID string) ([]domain.Download, error) {
	rows, err := r.db.Query(ctx, listDownloadsSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var downloads []domain.Download

	for rows.Next() {
		var (
			d             domain.Download
			priceAmount   decimal.Decimal
			priceCurrency string
		)

		if err := rows.Scan(
			&d.ID, &d.OwnerID, &d.ProductID, &d.Token, &d.ExpiresAt,
			&d.DownloadCount, &d.MaxDownloads, &d.Active, &d.CreatedAt,
			&d.Product.ExamName, &d.Product.ExamCode,
			&priceAmount, &priceCurrency, &d.Product.DifficultyLevel,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		price, err := mapMoney(priceAmount, priceCurrency)
		if err != nil {
			return nil, fmt.Errorf("mapMoney: %w", err)
		}

		d.Product.ID = d.ProductID
		d.Product.Price = price

		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return downloads, nil
}

func (r *downloadRepository) Deactivate(ctx context.Context, downloadID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, deactivateDownloadSQL, downloadID)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("db.Exec: %w", domain.ErrNotFound)
	}

	return nil
}
