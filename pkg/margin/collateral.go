package margin

import (
	"time"

	"margin/core"
	"margin/pkg/number"

	"github.com/shopspring/decimal"
)

// AccountValues supply & borrow value of balances, premiums applied
//
// prices must hold a price for every market with a non zero balance
func AccountValues(balances core.Balances, prices map[uint64]decimal.Decimal, markets map[uint64]*core.Market) (*core.AccountValues, error) {
	values := &core.AccountValues{
		SupplyValue: decimal.Zero,
		BorrowValue: decimal.Zero,
	}

	for _, id := range balances.MarketIDs() {
		market, ok := markets[id]
		if !ok {
			return nil, &RequireError{Code: core.ErrMarketNotFound, Reason: "collateral/market-exists"}
		}

		price, ok := prices[id]
		if !ok {
			return nil, &RequireError{Code: core.ErrPriceNotFound, Reason: "collateral/price-exists"}
		}

		if !price.IsPositive() {
			return nil, &RequireError{Code: core.ErrInvalidPrice, Reason: "collateral/price-positive"}
		}

		premium := market.MarginPremium.OrOne()
		balance := balances.Get(id)
		if balance.IsPositive() {
			value := number.MulDiv(balance.Mul(price), premium.Denominator, premium.Numerator)
			values.SupplyValue = values.SupplyValue.Add(value)
		} else {
			value := number.MulDivCeil(balance.Neg().Mul(price), premium.Numerator, premium.Denominator)
			values.BorrowValue = values.BorrowValue.Add(value)
		}
	}

	return values, nil
}

// IsLiquidatable supply * den < borrow * num
func IsLiquidatable(values *core.AccountValues, minCollateralization core.Ratio) bool {
	if !values.BorrowValue.IsPositive() {
		return false
	}

	supply := values.SupplyValue.Mul(minCollateralization.Denominator)
	borrow := values.BorrowValue.Mul(minCollateralization.Numerator)
	return supply.LessThan(borrow)
}

// IsExpired t strictly after expiresAt
func IsExpired(expiresAt, t time.Time) bool {
	return !expiresAt.IsZero() && t.After(expiresAt)
}
