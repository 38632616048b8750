package number

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestCeil(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.11",
		"0.100000001": "0.11",
		"0.108":       "0.11",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Ceil(Decimal(k), 2)
			assert.Equal(t, v, c.String(), "should be ceil")
		})
	}
}

func TestQuoFloor(t *testing.T) {
	data := []struct {
		a, b, expect string
	}{
		{"7", "2", "3"},
		{"-7", "2", "-4"},
		{"6", "3", "2"},
		{"-6", "3", "-2"},
		{"174000000000000000000000000000000000000000000", "990000000000000000", "175757575757575757575757575"},
	}

	for _, d := range data {
		t.Run(d.a+"/"+d.b, func(t *testing.T) {
			assert.Equal(t, d.expect, QuoFloor(Decimal(d.a), Decimal(d.b)).String())
		})
	}
}

func TestQuoCeil(t *testing.T) {
	assert.Equal(t, "4", QuoCeil(Decimal("7"), Decimal("2")).String())
	assert.Equal(t, "-3", QuoCeil(Decimal("-7"), Decimal("2")).String())
	assert.Equal(t, "2", QuoCeil(Decimal("6"), Decimal("3")).String())
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, "33", MulDiv(Decimal("10"), Decimal("10"), Decimal("3")).String())
	assert.Equal(t, "34", MulDivCeil(Decimal("10"), Decimal("10"), Decimal("3")).String())
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "1021900000000000000", Price(Decimal("1.0219"), 18).String())
	assert.Equal(t, "1000000000000000000000000000000", Price(Decimal("1"), 6).String())
	assert.Equal(t, "174000000", Wei(Decimal("174"), 6).String())
	assert.Equal(t, true, IsInteger(Decimal("12")))
	assert.Equal(t, false, IsInteger(Decimal("1.2")))
}
