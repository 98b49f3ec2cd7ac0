package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const (
	// DownloadValidity is the entitlement expiry window.
	DownloadValidity = 15 * 24 * time.Hour

	// MaxDownloads is the redemption limit per entitlement.
	MaxDownloads = 10

	tokenBytes = 32
)

// IssueDownload mints a fresh entitlement for a purchased product. The token
// carries 256 bits of randomness, so guessing one is infeasible.
func IssueDownload(ownerID string, productID uuid.UUID, now time.Time) (domain.Download, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return domain.Download{}, fmt.Errorf("rand.Read: %w", err)
	}

	return domain.Download{
		OwnerID:       ownerID,
		ProductID:     productID,
		Token:         hex.EncodeToString(buf),
		ExpiresAt:     now.Add(DownloadValidity),
		DownloadCount: 0,
		MaxDownloads:  MaxDownloads,
		Active:        true,
	}, nil
}

// DownloadService redeems entitlement tokens and lists an identity's
// entitlements. Issuance happens inside the payment reconciler's transaction
// via IssueDownload.
type DownloadService struct {
	downloads port.DownloadRepository
	products  port.ProductRepository
	content   port.ContentGenerator
}

func NewDownloadService(downloads port.DownloadRepository, products port.ProductRepository, content port.ContentGenerator) *DownloadService {
	return &DownloadService{downloads: downloads, products: products, content: content}
}

// Redeem consumes one redemption slot of the token and returns the artifact.
func (s *DownloadService) Redeem(ctx context.Context, token string) (domain.Download, domain.Artifact, error) {
	var a domain.Artifact

	download, err := s.downloads.Redeem(ctx, token)
	if err != nil {
		return domain.Download{}, a, fmt.Errorf("downloads.Redeem: %w", err)
	}

	product, err := s.products.GetProduct(ctx, download.ProductID)
	if err != nil {
		return download, a, fmt.Errorf("products.GetProduct: %w", err)
	}

	return download, s.content.Generate(product), nil
}

func (s *DownloadService) ListDownloads(ctx context.Context, ownerID string) ([]domain.Download, error) {
	downloads, err := s.downloads.ListDownloads(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("downloads.ListDownloads: %w", err)
	}

	return downloads, nil
}
