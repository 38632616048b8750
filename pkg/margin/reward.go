package margin

import (
	"time"

	"margin/core"
	"margin/pkg/number"

	"github.com/shopspring/decimal"
)

// DustWei held balance tolerated after a close out
var DustWei = decimal.NewFromInt(10)

// PairSpread liquidation spread of held/owed, spread - 1 scaled by both spread premiums
func PairSpread(base core.Ratio, held, owed *core.Market) core.Ratio {
	base = base.OrOne()
	heldPremium := held.SpreadPremium.OrOne()
	owedPremium := owed.SpreadPremium.OrOne()

	den := base.Denominator.Mul(heldPremium.Denominator).Mul(owedPremium.Denominator)
	extra := base.Numerator.Sub(base.Denominator).Mul(heldPremium.Numerator).Mul(owedPremium.Numerator)
	return core.Ratio{
		Numerator:   den.Add(extra),
		Denominator: den,
	}
}

// OwedPrice adjusted owed price as an exact fraction
type OwedPrice struct {
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

// Value floor of the fraction
func (p OwedPrice) Value() decimal.Decimal {
	return number.QuoFloor(p.Numerator, p.Denominator)
}

// LiquidationOwedPrice owedPrice * spread
func LiquidationOwedPrice(owedPrice decimal.Decimal, spread core.Ratio) OwedPrice {
	spread = spread.OrOne()
	return OwedPrice{
		Numerator:   owedPrice.Mul(spread.Numerator),
		Denominator: spread.Denominator,
	}
}

// ExpiryOwedPrice owedPrice plus the spread ramped linearly over ramp since expiry
//
// ramp <= 0 applies the full spread immediately
func ExpiryOwedPrice(owedPrice decimal.Decimal, spread core.Ratio, expiresAt, now time.Time, ramp time.Duration) OwedPrice {
	spread = spread.OrOne()
	premium := spread.Numerator.Sub(spread.Denominator)

	elapsed := now.Sub(expiresAt)
	if elapsed < 0 {
		elapsed = 0
	}

	var delta decimal.Decimal
	if ramp <= 0 || elapsed >= ramp {
		delta = number.MulDiv(owedPrice, premium, spread.Denominator)
	} else {
		e := decimal.NewFromInt(int64(elapsed))
		r := decimal.NewFromInt(int64(ramp))
		delta = number.MulDiv(owedPrice.Mul(premium), e, spread.Denominator.Mul(r))
	}

	return OwedPrice{
		Numerator:   owedPrice.Add(delta),
		Denominator: decimal.NewFromInt(1),
	}
}

// HeldForOwed floor(owed * owedPriceAdj / heldPrice)
func HeldForOwed(owed decimal.Decimal, owedPrice OwedPrice, heldPrice decimal.Decimal) decimal.Decimal {
	return number.MulDiv(owed, owedPrice.Numerator, owedPrice.Denominator.Mul(heldPrice))
}

// OwedForHeld inverse of HeldForOwed, floor(held * heldPrice / owedPriceAdj)
func OwedForHeld(held decimal.Decimal, owedPrice OwedPrice, heldPrice decimal.Decimal) decimal.Decimal {
	return number.MulDiv(held.Mul(heldPrice), owedPrice.Denominator, owedPrice.Numerator)
}

// LiquidationReward floor(owed * owedPrice * spreadNum / (spreadDen * heldPrice))
func LiquidationReward(owed, owedPrice, heldPrice decimal.Decimal, spread core.Ratio) decimal.Decimal {
	return HeldForOwed(owed, LiquidationOwedPrice(owedPrice, spread), heldPrice)
}

// ExpiryReward floor(owed * owedPriceAdj / heldPrice)
func ExpiryReward(owed, owedPrice, heldPrice decimal.Decimal, spread core.Ratio, expiresAt, now time.Time, ramp time.Duration) decimal.Decimal {
	return HeldForOwed(owed, ExpiryOwedPrice(owedPrice, spread, expiresAt, now, ramp), heldPrice)
}

// Settlement owed & held amounts of one liquidation
type Settlement struct {
	OwedAmount decimal.Decimal
	HeldAmount decimal.Decimal
	CloseOut   bool
	FullRepay  bool
}

// Settle caps the reward of repaying owedBalance at heldBalance
//
// owedBalance and heldBalance are absolute amounts. input > 0 requests a partial liquidation
// receiving exactly input of held collateral, it must not exceed the maximum reward.
func Settle(owedBalance, heldBalance, input decimal.Decimal, owedPrice OwedPrice, heldPrice decimal.Decimal) (*Settlement, error) {
	if err := Require(owedBalance.IsPositive(), core.ErrNoDebt, "reward/owed-balance-positive"); err != nil {
		return nil, err
	}

	if err := Require(heldBalance.IsPositive(), core.ErrNoSupply, "reward/held-balance-positive"); err != nil {
		return nil, err
	}

	if err := Require(heldPrice.IsPositive() && owedPrice.Numerator.IsPositive(), core.ErrInvalidPrice, "reward/prices-positive"); err != nil {
		return nil, err
	}

	if err := Require(!input.IsNegative() && number.IsInteger(input), core.ErrInvalidAmount, "reward/input-integer"); err != nil {
		return nil, err
	}

	s := &Settlement{
		OwedAmount: owedBalance,
		HeldAmount: HeldForOwed(owedBalance, owedPrice, heldPrice),
	}

	if s.HeldAmount.GreaterThan(heldBalance) {
		s.HeldAmount = heldBalance
		s.OwedAmount = number.Min(OwedForHeld(heldBalance, owedPrice, heldPrice), owedBalance)
		s.CloseOut = true
	}

	if input.IsPositive() && !input.Equal(s.HeldAmount) {
		if err := Require(input.LessThan(s.HeldAmount), core.ErrInvalidAmount, "reward/input-within-max"); err != nil {
			return nil, err
		}

		s.HeldAmount = input
		s.OwedAmount = OwedForHeld(input, owedPrice, heldPrice)
		s.CloseOut = false
	}

	if err := Require(s.OwedAmount.IsPositive(), core.ErrInvalidAmount, "reward/owed-amount-positive"); err != nil {
		return nil, err
	}

	s.FullRepay = s.OwedAmount.Equal(owedBalance)
	return s, nil
}
