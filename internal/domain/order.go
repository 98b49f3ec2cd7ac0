package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

type Order struct {
	ID                uuid.UUID
	OwnerID           string
	Total             Money
	Items             []OrderItem
	Status            OrderStatus
	PaymentMethod     PaymentMethod
	ProviderPaymentID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem carries the unit price captured at checkout time.
// The price is frozen on the order and never re-read from the catalog.
type OrderItem struct {
	ProductID uuid.UUID
	Quantity  int32
	Price     Money
	Product   ProductSummary

	CreatedAt time.Time
}

// ItemsTotal recomputes the sum of the frozen line amounts. It must always
// equal Total.
func (o Order) ItemsTotal() Money {
	total := ZeroMoney(currency.USD)
	for i, item := range o.Items {
		if i == 0 {
			total.Currency = item.Price.Currency
		}
		total = total.Add(item.Price.MulQuantity(item.Quantity))
	}
	return total
}
