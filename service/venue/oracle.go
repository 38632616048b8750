package venue

import (
	"context"

	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"

	"github.com/shopspring/decimal"
)

type oracleVenue struct {
	name     string
	markets  core.IMarketStore
	oracle   core.IPriceOracle
	slippage decimal.Decimal
}

// NewOracleVenue external liquidity filled at oracle prices less slippage
func NewOracleVenue(name string, markets core.IMarketStore, oracle core.IPriceOracle, slippage decimal.Decimal) core.ExternalVenue {
	return &oracleVenue{
		name:     name,
		markets:  markets,
		oracle:   oracle,
		slippage: slippage,
	}
}

func (v *oracleVenue) Name() string {
	return v.name
}

func (v *oracleVenue) Quote(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error) {
	if err := margin.Require(inputMarketID != outputMarketID, core.ErrInvalidMarketPair, "venue/"+v.name+"/pair"); err != nil {
		return decimal.Zero, err
	}

	for _, id := range []uint64{inputMarketID, outputMarketID} {
		market, err := v.markets.Find(ctx, id)
		if err != nil {
			return decimal.Zero, err
		}

		if err := margin.Require(!market.Isolated, core.ErrInvalidTrader, "venue/"+v.name+"/not-isolated"); err != nil {
			return decimal.Zero, err
		}
	}

	in, err := v.oracle.GetPrice(ctx, inputMarketID)
	if err != nil {
		return decimal.Zero, err
	}

	out, err := v.oracle.GetPrice(ctx, outputMarketID)
	if err != nil {
		return decimal.Zero, err
	}

	value := number.MulDiv(amount, in.Value, out.Value)
	if v.slippage.IsPositive() {
		value = value.Mul(decimal.NewFromInt(1).Sub(v.slippage)).Truncate(0)
	}

	return value, nil
}

func (v *oracleVenue) Trade(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error) {
	return v.Quote(ctx, inputMarketID, outputMarketID, amount, routingData)
}
