package port

import (
	"context"
	"net/http"

	"github.com/sfexams/store/internal/domain"
)

// PaymentProvider is the common shape of the two payment providers. Only
// session initiation and callback verification differ between them; the
// reconciliation logic is shared.
type PaymentProvider interface {
	Tag() domain.PaymentMethod

	// Initiate creates a checkout session at the provider for the order's
	// frozen total and display lines.
	Initiate(ctx context.Context, order domain.Order, lines []domain.CheckoutLine) (domain.CheckoutSession, error)

	// VerifyCallback checks the callback's authenticity against the raw
	// payload and the signature headers, then parses it. A verification
	// failure returns domain.ErrBadSignature and must not be followed by any
	// state mutation.
	VerifyCallback(ctx context.Context, payload []byte, header http.Header) (domain.ProviderEvent, error)
}
