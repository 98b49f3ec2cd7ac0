package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPaypal PaymentMethod = "paypal"
)

var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodStripe: {},
	PaymentMethodPaypal: {},
}

func ToPaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(s)
	if _, ok := validPaymentMethods[method]; ok {
		return method, nil
	}

	return "", errors.New("invalid payment method")
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is an append-only audit record. At most one of StripeID/PaypalID
// is set, selected by Method.
type Payment struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Amount   Money
	Status   PaymentStatus
	Method   PaymentMethod
	StripeID *string
	PaypalID *string

	CreatedAt time.Time
}
