package payment

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount formats an amount the way the gateway hashes it: two
// decimal places, "." separator, no grouping. 1000 becomes "1000.00".
func NormalizeAmount(v interface{}) (string, error) {
	d, err := toDecimal(v)
	if err != nil {
		return "", err
	}
	if !d.IsPositive() {
		return "", fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	out := d.StringFixed(2)
	if out == "0.00" {
		return "", fmt.Errorf("%w: rounds to zero", ErrInvalidAmount)
	}
	return out, nil
}

// ParseAmount converts any accepted amount representation into a decimal
// without applying the positivity rule.
func ParseAmount(v interface{}) (decimal.Decimal, error) {
	return toDecimal(v)
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: missing", ErrInvalidAmount)
	case decimal.Decimal:
		return n, nil
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, fmt.Errorf("%w: missing", ErrInvalidAmount)
		}
		return *n, nil
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromUint64(uint64(n)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(n)), nil
	case uint64:
		return decimal.NewFromUint64(n), nil
	case json.Number:
		return fromString(n.String())
	case string:
		return fromString(n)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	// NewFromFloat panics on NaN and infinities.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	return decimal.NewFromFloat(f), nil
}

func fromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return d, nil
}
