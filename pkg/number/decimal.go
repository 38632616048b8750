package number

import (
	"github.com/shopspring/decimal"
)

// PriceScale exponent of the per-wei price scale
const PriceScale = 36

func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

// IsInteger no fractional part
func IsInteger(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// QuoFloor integer division rounded toward negative infinity
func QuoFloor(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, 0)
	if !r.IsZero() && (r.Sign() != b.Sign()) {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q
}

// QuoCeil integer division rounded toward positive infinity
func QuoCeil(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, 0)
	if !r.IsZero() && (r.Sign() == b.Sign()) {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q
}

// MulDiv floor(a * b / c), exact
func MulDiv(a, b, c decimal.Decimal) decimal.Decimal {
	return QuoFloor(a.Mul(b), c)
}

// MulDivCeil ceil(a * b / c), exact
func MulDivCeil(a, b, c decimal.Decimal) decimal.Decimal {
	return QuoCeil(a.Mul(b), c)
}

// Price per wei price scaled by 1e36 from a unit price and token decimals
func Price(unit decimal.Decimal, decimals int32) decimal.Decimal {
	return unit.Shift(PriceScale - decimals).Truncate(0)
}

// Wei integer wei of a unit amount
func Wei(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(decimals).Truncate(0)
}

// Min smaller of a and b
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
