package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
)

type DownloadRepository interface {
	InsertDownload(ctx context.Context, download domain.Download) (uuid.UUID, error)
	ListDownloads(ctx context.Context, ownerID string) ([]domain.Download, error)

	// Redeem atomically increments the redemption counter of an active,
	// unexpired token and deactivates it once the limit is reached.
	// It returns domain.ErrNotFound for unknown, inactive or expired tokens
	// and domain.ErrLimitExceeded for exhausted ones.
	Redeem(ctx context.Context, token string) (domain.Download, error)

	Deactivate(ctx context.Context, downloadID uuid.UUID) error
}
