package domain

import "github.com/google/uuid"

// CheckoutSession references a payment session created at the provider.
type CheckoutSession struct {
	ID          string
	RedirectURL string
}

// CheckoutLine is a display line sent to the provider when a session is
// initiated.
type CheckoutLine struct {
	Name        string
	Description string
	UnitPrice   Money
	Quantity    int32
}

// ProviderEvent is a verified, parsed provider callback. OrderID is Nil for
// event types the workflow does not act on.
type ProviderEvent struct {
	OrderID      uuid.UUID
	ProviderTxID string
	Succeeded    bool
	Reason       string
}
