// Package amount defines the signed 128-bit monetary value used by the ledger
// and campaign engine.
//
// Values are held as integral decimals so intermediate products never wrap;
// every operation that can leave the signed 128-bit range reports ErrOverflow
// instead of silently truncating.
package amount

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
)

var (
	// ErrOverflow indicates a result outside the signed 128-bit range.
	ErrOverflow = apperrors.New(apperrors.CodeArithmeticOverflow, "amount overflows signed 128-bit range")
	// ErrDivisionByZero indicates a quotient with a zero divisor.
	ErrDivisionByZero = apperrors.New(apperrors.CodeArithmeticOverflow, "amount division by zero")

	maxValue = decimal.RequireFromString("170141183460469231731687303715884105727")
	minValue = decimal.RequireFromString("-170141183460469231731687303715884105728")
)

// Amount is an immutable signed 128-bit integer.
//
// The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero returns 0.
func Zero() Amount {
	return Amount{}
}

// Max returns the largest representable amount, 2^127-1.
func Max() Amount {
	return Amount{d: maxValue}
}

// Min returns the smallest representable amount, -2^127.
func Min() Amount {
	return Amount{d: minValue}
}

// New returns the amount for an int64 value. Every int64 fits.
func New(value int64) Amount {
	return Amount{d: decimal.NewFromInt(value)}
}

// Parse parses a base-10 integer string.
func Parse(value string) (Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Amount{}, fmt.Errorf("amount is required")
	}
	for i, r := range value {
		if r == '-' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("amount %q must be a base-10 integer", value)
		}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return fromDecimal(d)
}

// MustParse is Parse for constants and tests; it panics on invalid input.
func MustParse(value string) Amount {
	a, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return a
}

func fromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Cmp(maxValue) > 0 || d.Cmp(minValue) < 0 {
		return Amount{}, ErrOverflow
	}
	return Amount{d: d}, nil
}

// Add returns a+b or ErrOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	return fromDecimal(a.d.Add(b.d))
}

// Sub returns a-b or ErrOverflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	return fromDecimal(a.d.Sub(b.d))
}

// Mul returns a*b or ErrOverflow.
func (a Amount) Mul(b Amount) (Amount, error) {
	return fromDecimal(a.d.Mul(b.d))
}

// SaturatingMul returns a*b clamped to [Min, Max].
func (a Amount) SaturatingMul(b Amount) Amount {
	product := a.d.Mul(b.d)
	switch {
	case product.Cmp(maxValue) > 0:
		return Max()
	case product.Cmp(minValue) < 0:
		return Min()
	}
	return Amount{d: product}
}

// Quo returns a/b truncated toward zero.
//
// Min / -1 is the only in-range pair whose quotient overflows.
func (a Amount) Quo(b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	q, _ := a.d.QuoRem(b.d, 0)
	return fromDecimal(q)
}

// Neg returns -a or ErrOverflow for Min.
func (a Amount) Neg() (Amount, error) {
	return fromDecimal(a.d.Neg())
}

// Cmp compares a and b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// GreaterThanOrEqual reports whether a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.d.GreaterThanOrEqual(b.d)
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int {
	return a.d.Sign()
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// String returns the base-10 representation.
func (a Amount) String() string {
	return a.d.String()
}

// Int64 returns the value when it fits in an int64.
func (a Amount) Int64() (int64, bool) {
	if !a.d.BigInt().IsInt64() {
		return 0, false
	}
	return a.d.IntPart(), true
}

// MarshalText encodes the amount as a base-10 string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a base-10 string.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string; 128-bit values do not
// survive float64 JSON numbers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON string or a JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	return a.UnmarshalText([]byte(raw))
}

// Value implements driver.Valuer, storing the amount as TEXT.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for TEXT or INTEGER columns.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		*a = New(v)
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}
