// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. On the wire and in persisted state they
// are plain decimal numbers (12.34), converted through shopspring/decimal so
// no float rounding ever reaches the cents value.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative monetary amount in cents.
type Money struct {
	Cents int64
}

// NewMoney builds a Money from a whole-cents value.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o. The result may be negative (an overspent budget).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MoneyFromDecimal converts a currency-unit decimal to cents, rounding half
// away from zero on the third decimal place.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Negative or malformed values are
// rejected; zero is accepted.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("-1")     -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// decimal accepts exponents ("1e3"); amounts typed by people never use them.
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	return MoneyFromDecimal(d).Cents, nil
}

// MarshalJSON writes the amount as a JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number in currency units, or a string typed
// the way people write amounts ("12,34").
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" || raw == `""` {
		*m = Money{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		cents, err := ParseDecimalToCents(strings.Trim(raw, `"`))
		if err != nil {
			return err
		}
		*m = Money{Cents: cents}
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is
// not positive.
func Percent(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return decimal.NewFromInt(part.Cents).
		Div(decimal.NewFromInt(whole.Cents)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

// Share returns the given share of total, where share must lie in [0,1].
func Share(total Money, share float64) (Money, error) {
	if share < 0 || share > 1 {
		return Money{}, ErrInvalidPercentage
	}
	return MoneyFromDecimal(total.Decimal().Mul(decimal.NewFromFloat(share))), nil
}
