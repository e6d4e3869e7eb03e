package zoho

import "github.com/shopspring/decimal"

// Number wraps a decimal so currency amounts marshal as bare JSON numbers.
// decimal.Decimal marshals as a quoted string by default, which the Books
// API rejects for rate fields.
type Number struct {
	decimal.Decimal
}

func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// MarshalJSON emits the decimal value without quotes, preserving precision.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (n *Number) UnmarshalJSON(data []byte) error {
	return n.Decimal.UnmarshalJSON(data)
}
