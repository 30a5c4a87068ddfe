// Package money parses and formats monetary amounts as fixed-point decimals
// with two fractional digits. Binary floating point never touches a balance.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every amount.
const Scale = 2

// ErrInvalidAmount is returned for amounts that are not strictly positive or
// carry more than two decimal places.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxIntegerDigits matches the NUMERIC(15,2) columns that store amounts and
// balances.
const MaxIntegerDigits = 13

// maxLiteralLen bounds the textual form accepted by Parse.
const maxLiteralLen = 32

// Zero is the zero amount.
var Zero = decimal.Zero

// Max is the largest amount or balance the ledger can hold.
var Max = decimal.New(1, MaxIntegerDigits).Sub(decimal.New(1, -Scale))

// Parse converts the textual form of an amount and validates it.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if len(s) > maxLiteralLen {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if err := Validate(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// Validate enforces the amount rule: strictly positive, at most two
// fractional digits and no larger than Max.
//
// The checks read the coefficient and exponent directly. Comparing or
// rescaling a decimal such as 1e200000000 would materialise the full integer.
func Validate(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidAmount)
	}
	digits := int64(len(d.Coefficient().String()))
	exp := int64(d.Exponent())
	if digits+exp > MaxIntegerDigits {
		return fmt.Errorf("%w: amount must not exceed %s", ErrInvalidAmount, Format(Max))
	}
	if exp < -Scale {
		// A positive coefficient of n digits has at most n-1 trailing zeros.
		if -exp-Scale >= digits || !d.Equal(d.Truncate(Scale)) {
			return fmt.Errorf("%w: amount must have at most 2 decimal places", ErrInvalidAmount)
		}
	}
	return nil
}

// Format renders an amount with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// Number renders an amount as a JSON number with two fractional digits so
// responses keep the numeric shape clients expect without a float round trip.
func Number(d decimal.Decimal) json.Number {
	return json.Number(Format(d))
}

// Amount is a request-side amount accepting either a JSON number or a JSON
// string. Decoding keeps the literal digits so 0.1 stays exactly 0.1.
type Amount struct {
	raw string
}

// UnmarshalJSON captures the literal without converting through float64.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.raw = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	a.raw = s
	return nil
}

// Set reports whether a value was supplied.
func (a Amount) Set() bool { return a.raw != "" }

// Raw returns the literal as received.
func (a Amount) Raw() string { return a.raw }

// Decimal validates and returns the amount.
func (a Amount) Decimal() (decimal.Decimal, error) {
	return Parse(a.raw)
}

// AmountOf builds a request amount from a literal. Used by tests and callers
// that already hold a string.
func AmountOf(s string) Amount { return Amount{raw: s} }
