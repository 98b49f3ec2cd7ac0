package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

type Cart struct {
	OwnerID string
	Items   []CartItem
}

type CartItem struct {
	ProductID uuid.UUID
	Quantity  int32
	Product   ProductSummary

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total sums unit price times quantity over all lines.
func (c Cart) Total() Money {
	total := ZeroMoney(currency.USD)
	for i, item := range c.Items {
		if i == 0 {
			total.Currency = item.Product.Price.Currency
		}
		total = total.Add(item.Product.Price.MulQuantity(item.Quantity))
	}
	return total
}
