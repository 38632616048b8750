package trader

import (
	"context"

	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"
	"margin/pkg/routes"

	"github.com/shopspring/decimal"
)

// LegConfig binding of a conversion leg
type LegConfig struct {
	Name      string
	Direction core.LegDirection
	// bound isolated market
	Isolated uint64
	// output markets of an unwrapper, input markets of a wrapper
	Counters routes.Routes
	// retention fee
	Fee core.Ratio
	// the only caller Exchange accepts
	Orchestrator string
}

type leg struct {
	cfg   LegConfig
	rates core.IShareRateSource
}

func (l *leg) Name() string {
	return l.cfg.Name
}

func (l *leg) Direction() core.LegDirection {
	return l.cfg.Direction
}

func (l *leg) IsolatedMarket() uint64 {
	return l.cfg.Isolated
}

func (l *leg) IsValidCounterMarket(marketID uint64) bool {
	return marketID != l.cfg.Isolated && l.cfg.Counters.Contains(marketID)
}

func (l *leg) checkPair(inputMarketID, outputMarketID uint64) error {
	var ok bool
	switch l.cfg.Direction {
	case core.LegDirectionUnwrap:
		ok = inputMarketID == l.cfg.Isolated && l.IsValidCounterMarket(outputMarketID)
	case core.LegDirectionWrap:
		ok = outputMarketID == l.cfg.Isolated && l.IsValidCounterMarket(inputMarketID)
	}

	return margin.Require(ok, core.ErrInvalidMarketPair, "leg/"+l.cfg.Name+"/pair")
}

func (l *leg) checkCaller(caller string) error {
	return margin.Require(caller != "" && caller == l.cfg.Orchestrator, core.ErrUnauthorizedCaller, "leg/"+l.cfg.Name+"/caller")
}

// convert amountBeforeRetention by the share rate, then the retention fee
func (l *leg) convert(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := l.checkPair(inputMarketID, outputMarketID); err != nil {
		return decimal.Zero, err
	}

	if err := margin.Require(!amount.IsNegative() && number.IsInteger(amount), core.ErrInvalidAmount, "leg/amount-integer"); err != nil {
		return decimal.Zero, err
	}

	counter := outputMarketID
	if l.cfg.Direction == core.LegDirectionWrap {
		counter = inputMarketID
	}

	assets, shares, err := l.rates.ShareRate(ctx, l.cfg.Isolated, counter)
	if err != nil {
		return decimal.Zero, err
	}

	if err := margin.Require(assets.IsPositive() && shares.IsPositive(), core.ErrInvalidPrice, "leg/rate-positive"); err != nil {
		return decimal.Zero, err
	}

	var before decimal.Decimal
	if l.cfg.Direction == core.LegDirectionUnwrap {
		before = number.MulDiv(amount, assets, shares)
	} else {
		before = number.MulDiv(amount, shares, assets)
	}

	fee := l.cfg.Fee
	if !fee.IsValid() {
		return before, nil
	}

	return number.MulDiv(before, fee.Denominator.Sub(fee.Numerator), fee.Denominator), nil
}
