package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user-entered text into a validated amount.
// A zero max disables the upper bound.
func ParseAmount(s string, max decimal.Decimal) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Invalid("amount", "is required")
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid("amount", "%q is not a number", s)
	}
	if err := ValidateAmount(amount, max); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func ValidateAmount(amount, max decimal.Decimal) error {
	if !amount.IsPositive() {
		return Invalid("amount", "must be positive, got %s", amount)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return Invalid("amount", "%s has more than two decimal places", amount)
	}
	if max.IsPositive() && amount.GreaterThan(max) {
		return Invalid("amount", "%s exceeds the limit of %s", amount, max)
	}
	return nil
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", Invalid("category", "%q is not one of Canteen, Library, Fees, Other", s)
}
