package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by Money.
const MoneyScale = 2

// MaxAmount is the largest value a single amount or balance may hold (NUMERIC(15,2)).
const MaxAmount = "9999999999999.99"

var (
	amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)
	maxAmount     = decimal.RequireFromString(MaxAmount)
)

// Money is an exact, non-negative fixed-point amount with two fractional digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// ZeroMoney is 0.00.
var ZeroMoney = Money{}

// MoneyOf builds Money from an integer count of minor units (cents).
func MoneyOf(minorUnits int64) (Money, error) {
	if minorUnits < 0 {
		return Money{}, fmt.Errorf("%w: negative minor units %d", ErrInvalidAmount, minorUnits)
	}

	return Money{d: decimal.New(minorUnits, -MoneyScale)}, nil
}

// ParseMoney parses a non-negative decimal string such as "1000.50".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return Money{}, fmt.Errorf("%w: %q is not a decimal with at most %d fractional digits", ErrInvalidAmount, s, MoneyScale)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if d.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxAmount)
	}

	return Money{d: d}, nil
}

// ParseAmount parses a strictly positive amount. Every amount that enters
// the system from a caller goes through here exactly once.
func ParseAmount(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}

	if !m.IsPositive() {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	return m, nil
}

// MoneyFromDecimal converts a stored NUMERIC value back into Money.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d)
	}

	if !d.Equal(d.Round(MoneyScale)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, d, MoneyScale)
	}

	return Money{d: d}, nil
}

// RequireMoney is like ParseMoney but panics on error. Use for constants and tests.
func RequireMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}

	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// CheckedAdd returns m + o, or ErrOverflow if the result would exceed MaxAmount.
func (m Money) CheckedAdd(o Money) (Money, error) {
	r := m.d.Add(o.d)
	if r.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: %s + %s exceeds maximum %s", ErrOverflow, m, o, MaxAmount)
	}

	return Money{d: r}, nil
}

// Sub returns m - o, or ErrUnderflow if the result would be negative.
func (m Money) Sub(o Money) (Money, error) {
	r := m.d.Sub(o.d)
	if r.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, m, o)
	}

	return Money{d: r}, nil
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }

// MinorUnits returns the amount in cents.
func (m Money) MinorUnits() int64 {
	return m.d.Shift(MoneyScale).IntPart()
}

// Decimal exposes the underlying value for storage adapters.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

// MarshalJSON encodes Money as a JSON string ("1000.50").
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a JSON string or number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
