package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Download is a redeemable right to fetch a purchased artifact, bounded by
// an expiry window and a redemption count. Rows are never deleted, only
// deactivated.
type Download struct {
	ID            uuid.UUID
	OwnerID       string
	ProductID     uuid.UUID
	Token         string
	ExpiresAt     time.Time
	DownloadCount int32
	MaxDownloads  int32
	Active        bool
	Product       ProductSummary

	CreatedAt time.Time
}

// RemainingDays rounds the time left before expiry up to whole days,
// clamped at zero.
func (d Download) RemainingDays(now time.Time) int {
	diff := d.ExpiresAt.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// Artifact is the downloadable content produced for a redeemed entitlement.
type Artifact struct {
	ContentType string
	FileName    string
	Data        []byte
}
