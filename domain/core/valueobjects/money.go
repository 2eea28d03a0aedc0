package valueobjects

import (
	"strings"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/shopspring/decimal"
)

// Money is a non-negative currency amount held as an exact decimal.
// Store prices arrive as display strings ("$4.99") and are parsed once here;
// arithmetic never goes back through strings or floats.
type Money struct {
	amount decimal.Decimal
}

// Zero is the empty amount
var Zero = Money{amount: decimal.Zero}

// NewMoneyFromCents creates an amount from an integer number of cents
func NewMoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -2)}
}

// ParsePrice parses a display price such as "$1,299.50", "4.99" or " 10 ".
// Negative and malformed amounts are rejected.
func ParsePrice(s string) (Money, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return Money{}, pkgerrors.NewValidationError("price cannot be empty")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, pkgerrors.NewValidationError("malformed price: " + s).WithCause(err)
	}
	if d.IsNegative() {
		return Money{}, pkgerrors.NewValidationError("price cannot be negative: " + s)
	}

	return Money{amount: d}, nil
}

// MustParsePrice is ParsePrice for compile-time constants; it panics on error
func MustParsePrice(s string) Money {
	m, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Times returns m multiplied by an integer quantity
func (m Money) Times(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Rounded rounds half-up to whole cents
func (m Money) Rounded() Money {
	return Money{amount: m.amount.Round(2)}
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Equals compares two amounts by value
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Cents returns the amount rounded to whole cents
func (m Money) Cents() int64 {
	return m.amount.Round(2).Shift(2).IntPart()
}

// String renders the amount with exactly two decimals, rounding half-up
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON encodes the amount as a two-decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string ("$4.99") or a JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		*m = Zero
		return nil
	}
	parsed, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// UnmarshalYAML lets catalog files carry prices as display strings
func (m *Money) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
