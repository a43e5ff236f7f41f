// Package core provides the transaction domain types shared by the API
// client, the form, the dashboard and the CLI.
//
// This file contains the decimal amount type and its parsing helpers.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a money value with two fractional digits on the wire.
// It encodes as a bare JSON number and decodes from numbers or quoted strings.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a whole number of cents.
func NewAmount(cents int64) Amount {
	return Amount{Decimal: decimal.New(cents, -2)}
}

// ParseAmount converts user input into an Amount.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Parsing is the
// only check: range rules belong to the API.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("abc")   -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// ParseCategoryID converts the selected option value into a category id.
func ParseCategoryID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, ErrInvalidCategory
	}
	return id, nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// Display renders the amount with exactly two decimals, e.g. "12.50".
func (a Amount) Display() string {
	return a.StringFixed(2)
}

// FormatSigned renders an amount the way the dashboard list shows it: "+ 12.50 €".
func FormatSigned(t TransactionType, a Amount) string {
	return t.Sign() + " " + a.Abs().StringFixed(2) + " €"
}
