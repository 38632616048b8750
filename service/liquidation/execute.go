package liquidation

import (
	"context"

	"margin/core"
	"margin/pkg/margin"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// execute moves the debt & reward to the solid account, then runs every hop
func (s *liquidationService) execute(ctx context.Context, tx core.LedgerTx, a *attempt) ([]*core.HopResult, decimal.Decimal, error) {
	log := logger.FromContext(ctx)
	req, quote := a.req, a.quote

	if err := tx.Transfer(ctx, req.Solid, req.Liquid, quote.OwedMarketID, quote.OwedAmount); err != nil {
		return nil, decimal.Zero, err
	}

	if err := tx.Transfer(ctx, req.Liquid, req.Solid, quote.HeldMarketID, quote.HeldAmount); err != nil {
		return nil, decimal.Zero, err
	}

	var (
		results = make([]*core.HopResult, 0, len(a.hops))
		amount  = quote.HeldAmount
	)

	for idx, h := range a.hops {
		out, err := s.trade(ctx, tx, a, h, amount)
		if err != nil {
			log.WithError(err).Infof("liquidation: hop %d %d>%d failed", idx, h.in, h.out)
			return results, decimal.Zero, err
		}

		if err := margin.Require(out.GreaterThanOrEqual(h.minOutput), core.ErrHopUnderDelivered, "execute/hop-min-output"); err != nil {
			log.Infof("liquidation: hop %d delivered %s < %s", idx, out, h.minOutput)
			return results, decimal.Zero, err
		}

		if err := tx.Add(ctx, req.Solid, h.in, amount.Neg()); err != nil {
			return results, decimal.Zero, err
		}

		if err := tx.Add(ctx, req.Solid, h.out, out); err != nil {
			return results, decimal.Zero, err
		}

		results = append(results, &core.HopResult{
			InputMarketID:  h.in,
			OutputMarketID: h.out,
			Trader:         h.param.Trader,
			InputAmount:    amount,
			OutputAmount:   out,
		})

		amount = out
	}

	if err := margin.Require(amount.GreaterThanOrEqual(quote.OwedAmount), core.ErrInsufficientOutput, "execute/output-covers-debt"); err != nil {
		return results, amount, err
	}

	return results, amount, nil
}

func (s *liquidationService) trade(ctx context.Context, tx core.LedgerTx, a *attempt, h hop, amount decimal.Decimal) (decimal.Decimal, error) {
	if h.venue != nil {
		return h.venue.Trade(ctx, h.in, h.out, amount, h.param.TradeData)
	}

	return h.leg.Exchange(ctx, tx, &core.ExchangeRequest{
		Caller:         s.cfg.Orchestrator,
		Solid:          a.req.Solid,
		Liquid:         a.req.Liquid,
		InputMarketID:  h.in,
		OutputMarketID: h.out,
		InputAmount:    amount,
		MinOutput:      h.minOutput,
		TradeData:      h.param.TradeData,
	})
}

// reconcile post settlement balances of the liquid account
func (s *liquidationService) reconcile(ctx context.Context, tx core.LedgerTx, a *attempt) error {
	quote := a.quote

	owed, err := tx.Balance(ctx, a.req.Liquid, quote.OwedMarketID)
	if err != nil {
		return err
	}

	if err := margin.Require(owed.Equal(a.owedBalance.Add(quote.OwedAmount)), core.ErrInvariantViolated, "reconcile/owed-moved"); err != nil {
		return err
	}

	if quote.FullRepay {
		if err := margin.Require(owed.IsZero(), core.ErrInvariantViolated, "reconcile/full-repay-clears-debt"); err != nil {
			return err
		}
	}

	held, err := tx.Balance(ctx, a.req.Liquid, quote.HeldMarketID)
	if err != nil {
		return err
	}

	if err := margin.Require(!held.IsNegative(), core.ErrInvariantViolated, "reconcile/held-not-negative"); err != nil {
		return err
	}

	if quote.CloseOut {
		return margin.Require(held.LessThanOrEqual(margin.DustWei), core.ErrInvariantViolated, "reconcile/close-out-clears-held")
	}

	return nil
}

// releaseExecuted converts what a settled plan left of the liquid account's executed withdrawals
// into their output market, which unfreezes the account
func (s *liquidationService) releaseExecuted(ctx context.Context, a *attempt) error {
	if len(a.hops) == 0 {
		return nil
	}

	h := a.hops[0]
	if h.leg == nil || h.param.Type != core.TraderTypeIsolationModeUnwrapper || h.leg.Mode() != core.LegModeAsynchronous {
		return nil
	}

	actions, err := s.actions.FindByAccount(ctx, a.req.Liquid)
	if err != nil {
		return err
	}

	var rest []*core.AsyncAction
	for _, action := range actions {
		if action.Type != core.AsyncActionWithdrawal || action.Status != core.AsyncActionExecuted || !action.Retryable {
			continue
		}

		if action.InputMarketID == h.in && action.OutputMarketID == h.out {
			rest = append(rest, action)
		}
	}

	if len(rest) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)
	return s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		for _, action := range rest {
			if action.InputAmount.IsPositive() {
				if err := tx.Add(ctx, a.req.Liquid, action.InputMarketID, action.InputAmount.Neg()); err != nil {
					return err
				}
			}

			if action.OutputAmount.IsPositive() {
				if err := tx.Add(ctx, a.req.Liquid, action.OutputMarketID, action.OutputAmount); err != nil {
					return err
				}
			}

			key := action.Key
			tx.OnCommit(func() {
				if err := s.actions.Delete(ctx, key); err != nil {
					log.WithError(err).Errorln("actions.Delete", key)
				}
			})

			log.Infof("liquidation: released %s of %s as %s", action.InputAmount, key, action.OutputAmount)
		}

		return nil
	})
}
