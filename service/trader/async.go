package trader

import (
	"context"

	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"
	"margin/pkg/tradedata"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type asyncUnwrapper struct {
	leg
	actions core.IAsyncActionStore
}

// NewAsyncUnwrapper consumes executed withdrawals of the async redemption system
func NewAsyncUnwrapper(cfg LegConfig, rates core.IShareRateSource, actions core.IAsyncActionStore) core.ConversionLeg {
	cfg.Direction = core.LegDirectionUnwrap
	return &asyncUnwrapper{
		leg:     leg{cfg: cfg, rates: rates},
		actions: actions,
	}
}

func (l *asyncUnwrapper) Mode() core.LegMode {
	return core.LegModeAsynchronous
}

// GetExchangeCost output of the referenced executed withdrawals, the share rate estimate without
func (l *asyncUnwrapper) GetExchangeCost(ctx context.Context, inputMarketID, outputMarketID uint64, inputAmount decimal.Decimal, tradeData []byte) (decimal.Decimal, error) {
	data, err := tradedata.DecodeUnwrapper(tradeData)
	if err != nil {
		return decimal.Zero, &margin.RequireError{Code: core.ErrInvalidTradeData, Reason: "leg/" + l.cfg.Name + "/trade-data"}
	}

	if len(data.Keys) == 0 {
		return l.convert(ctx, inputMarketID, outputMarketID, inputAmount)
	}

	if err := l.checkPair(inputMarketID, outputMarketID); err != nil {
		return decimal.Zero, err
	}

	actions, err := l.load(ctx, data.Keys)
	if err != nil {
		return decimal.Zero, err
	}

	out, _ := consume(actions, inputAmount)
	return out, nil
}

func (l *asyncUnwrapper) Exchange(ctx context.Context, tx core.LedgerTx, req *core.ExchangeRequest) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("leg", l.cfg.Name)

	if err := l.checkCaller(req.Caller); err != nil {
		return decimal.Zero, err
	}

	if err := l.checkPair(req.InputMarketID, req.OutputMarketID); err != nil {
		return decimal.Zero, err
	}

	data, err := tradedata.DecodeUnwrapper(req.TradeData)
	if err != nil {
		return decimal.Zero, &margin.RequireError{Code: core.ErrInvalidTradeData, Reason: "leg/" + l.cfg.Name + "/trade-data"}
	}

	var actions []*core.AsyncAction
	if len(data.Keys) > 0 {
		actions, err = l.load(ctx, data.Keys)
	} else {
		actions, err = l.actions.FindByAccount(ctx, req.Liquid)
	}

	if err != nil {
		return decimal.Zero, err
	}

	var (
		available = decimal.Zero
		matched   []*core.AsyncAction
	)

	for _, action := range actions {
		if len(data.Keys) == 0 && (action.Type != core.AsyncActionWithdrawal || action.Status != core.AsyncActionExecuted) {
			continue
		}

		if err := l.check(action, req); err != nil {
			return decimal.Zero, err
		}

		available = available.Add(action.InputAmount)
		matched = append(matched, action)
	}

	if err := margin.Require(len(matched) > 0 && available.GreaterThanOrEqual(req.InputAmount), core.ErrInvalidAmount, "leg/"+l.cfg.Name+"/executed-input"); err != nil {
		return decimal.Zero, err
	}

	out, updates := consume(matched, req.InputAmount)
	if err := margin.Require(out.GreaterThanOrEqual(req.MinOutput), core.ErrHopUnderDelivered, "leg/"+l.cfg.Name+"/min-output"); err != nil {
		return decimal.Zero, err
	}

	tx.OnCommit(func() {
		for _, action := range updates {
			var err error
			if action.InputAmount.IsZero() {
				err = l.actions.Delete(ctx, action.Key)
			} else {
				err = l.actions.Update(ctx, action)
			}

			if err != nil {
				log.WithError(err).Errorln("actions.Update", action.Key)
			}
		}
	})

	log.Debugf("exchange %s %d -> %s %d, %d withdrawals", req.InputAmount, req.InputMarketID, out, req.OutputMarketID, len(updates))
	return out, nil
}

func (l *asyncUnwrapper) load(ctx context.Context, keys []string) ([]*core.AsyncAction, error) {
	actions := make([]*core.AsyncAction, 0, len(keys))
	for _, key := range keys {
		action, err := l.actions.Find(ctx, key)
		if err != nil {
			return nil, err
		}

		if err := margin.Require(action != nil, core.ErrActionNotFound, "leg/"+l.cfg.Name+"/action-exists"); err != nil {
			return nil, err
		}

		actions = append(actions, action)
	}

	return actions, nil
}

func (l *asyncUnwrapper) check(action *core.AsyncAction, req *core.ExchangeRequest) error {
	if err := margin.Require(action.Retryable || action.Status != core.AsyncActionExecuted, core.ErrTradesMustBeRetryable, "leg/"+l.cfg.Name+"/retryable"); err != nil {
		return err
	}

	if err := margin.Require(action.Type == core.AsyncActionWithdrawal && action.Account() == req.Liquid, core.ErrInvalidTradeData, "leg/"+l.cfg.Name+"/action-account"); err != nil {
		return err
	}

	if err := margin.Require(action.Status == core.AsyncActionExecuted, core.ErrActionNotExecuted, "leg/"+l.cfg.Name+"/action-executed"); err != nil {
		return err
	}

	return margin.Require(action.InputMarketID == req.InputMarketID && action.OutputMarketID == req.OutputMarketID, core.ErrInvalidMarketPair, "leg/"+l.cfg.Name+"/action-markets")
}

// consume takes amount of input from actions in order, output proportional to the input taken
func consume(actions []*core.AsyncAction, amount decimal.Decimal) (decimal.Decimal, []*core.AsyncAction) {
	var (
		out     = decimal.Zero
		remain  = amount
		updates []*core.AsyncAction
	)

	for _, action := range actions {
		if !remain.IsPositive() {
			break
		}

		if !action.InputAmount.IsPositive() {
			continue
		}

		take := number.Min(remain, action.InputAmount)
		got := action.OutputAmount
		if take.LessThan(action.InputAmount) {
			got = number.MulDiv(action.OutputAmount, take, action.InputAmount)
		}

		c := *action
		c.InputAmount = c.InputAmount.Sub(take)
		c.OutputAmount = c.OutputAmount.Sub(got)
		updates = append(updates, &c)

		out = out.Add(got)
		remain = remain.Sub(take)
	}

	return out, updates
}

type asyncWrapper struct {
	leg
}

// NewAsyncWrapper quotes deposits into the isolated market, execution goes through the freezable vault
func NewAsyncWrapper(cfg LegConfig, rates core.IShareRateSource) core.ConversionLeg {
	cfg.Direction = core.LegDirectionWrap
	return &asyncWrapper{leg: leg{cfg: cfg, rates: rates}}
}

func (l *asyncWrapper) Mode() core.LegMode {
	return core.LegModeAsynchronous
}

func (l *asyncWrapper) GetExchangeCost(ctx context.Context, inputMarketID, outputMarketID uint64, inputAmount decimal.Decimal, tradeData []byte) (decimal.Decimal, error) {
	return l.convert(ctx, inputMarketID, outputMarketID, inputAmount)
}

func (l *asyncWrapper) Exchange(ctx context.Context, tx core.LedgerTx, req *core.ExchangeRequest) (decimal.Decimal, error) {
	if err := l.checkCaller(req.Caller); err != nil {
		return decimal.Zero, err
	}

	return decimal.Zero, &margin.RequireError{Code: core.ErrInvalidTrader, Reason: "leg/" + l.cfg.Name + "/async-wrap-in-plan"}
}
