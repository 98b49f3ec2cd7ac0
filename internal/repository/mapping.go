package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"golang.org/x/text/currency"
)

func mapMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	parsedCurrency, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}

	return domain.Money{Amount: amount, Currency: parsedCurrency}, nil
}
