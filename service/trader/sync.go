package trader

import (
	"context"

	"margin/core"
	"margin/pkg/margin"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type syncLeg struct {
	leg
}

// NewSync synchronous leg, converts in place at the share rate
func NewSync(cfg LegConfig, rates core.IShareRateSource) core.ConversionLeg {
	return &syncLeg{leg: leg{cfg: cfg, rates: rates}}
}

func (l *syncLeg) Mode() core.LegMode {
	return core.LegModeSynchronous
}

func (l *syncLeg) GetExchangeCost(ctx context.Context, inputMarketID, outputMarketID uint64, inputAmount decimal.Decimal, tradeData []byte) (decimal.Decimal, error) {
	return l.convert(ctx, inputMarketID, outputMarketID, inputAmount)
}

func (l *syncLeg) Exchange(ctx context.Context, tx core.LedgerTx, req *core.ExchangeRequest) (decimal.Decimal, error) {
	if err := l.checkCaller(req.Caller); err != nil {
		return decimal.Zero, err
	}

	out, err := l.convert(ctx, req.InputMarketID, req.OutputMarketID, req.InputAmount)
	if err != nil {
		return decimal.Zero, err
	}

	if err := margin.Require(out.GreaterThanOrEqual(req.MinOutput), core.ErrHopUnderDelivered, "leg/"+l.cfg.Name+"/min-output"); err != nil {
		return decimal.Zero, err
	}

	logger.FromContext(ctx).WithField("leg", l.cfg.Name).Debugf("exchange %s %d -> %s %d", req.InputAmount, req.InputMarketID, out, req.OutputMarketID)
	return out, nil
}
