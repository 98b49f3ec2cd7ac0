package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// MulQuantity returns the line amount for a unit price and a quantity.
func (m Money) MulQuantity(quantity int32) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt32(quantity)),
		Currency: m.Currency,
	}
}

func (m Money) Add(other Money) Money {
	return Money{
		Amount:   m.Amount.Add(other.Amount),
		Currency: m.Currency,
	}
}

func ZeroMoney(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}
