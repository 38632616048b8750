package freezable

import (
	"context"

	"margin/core"
	"margin/pkg/id"
	"margin/pkg/margin"
	"margin/pkg/number"
	"margin/pkg/routes"
	"margin/pkg/tradedata"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (s *vaultService) OnWithdrawalCallback(ctx context.Context, key string, outcome *core.RedemptionOutcome) error {
	log := logger.FromContext(ctx).WithField("action", key)
	ctx = logger.WithContext(ctx, log)

	action, err := s.pending(ctx, key, core.AsyncActionWithdrawal, outcome)
	if err != nil {
		return err
	}

	release, err := s.enter(action.Account())
	if err != nil {
		return err
	}
	defer release()

	extra := outcomeExtra(outcome)
	traceID := id.TraceIDFromParts(key, "withdrawal_callback")

	if !outcome.Executed {
		err := s.actions.Delete(ctx, key)
		s.record(ctx, traceID, core.TransactionActionWithdrawalCallback, action, err, extra)
		log.Infoln("freezable: withdrawal not executed, unfrozen")
		return err
	}

	if !action.IsLiquidation {
		action.OutputAmount = outcome.OutputAmount
		err := s.release(ctx, action)
		s.record(ctx, traceID, core.TransactionActionWithdrawalCallback, action, err, extra)
		return err
	}

	action.Status = core.AsyncActionExecuted
	action.OutputAmount = outcome.OutputAmount
	action.Retryable = outcome.Retryable
	if err := s.actions.Update(ctx, action); err != nil {
		log.WithError(err).Errorln("actions.Update")
		return err
	}

	s.record(ctx, traceID, core.TransactionActionWithdrawalCallback, action, nil, extra)

	if !action.Retryable {
		log.Warnln("freezable: withdrawal not retryable, account stays frozen")
		return nil
	}

	if err := s.settle(ctx, action); err != nil {
		log.WithError(err).Warnln("freezable: settlement failed, executed withdrawal kept for retry")
	}

	return nil
}

// settle liquidates through the executed withdrawal, or unfreezes an account no longer liquidatable
func (s *vaultService) settle(ctx context.Context, action *core.AsyncAction) error {
	log := logger.FromContext(ctx)

	liquidatable, err := s.isLiquidatable(ctx, action.Account(), action.OwedMarketID, action.Expiry)
	if err != nil {
		return err
	}

	if !liquidatable {
		log.Infoln("freezable: no longer liquidatable, proceeds released")
		return s.release(ctx, action)
	}

	if action.OutputMarketID != action.OwedMarketID {
		log.Infoln("freezable: output is not the owed market, awaiting a liquidator plan")
		return nil
	}

	result, err := s.liquidation.Liquidate(ctx, &core.LiquidateRequest{
		Solid:  action.Solid(),
		Liquid: action.Account(),
		Plan: core.Plan{
			MarketIDsPath:  routes.Routes{action.InputMarketID, action.OutputMarketID},
			AmountWeisPath: []decimal.Decimal{decimal.Zero, decimal.Zero},
			TraderParams: []core.TraderParam{{
				Type:      core.TraderTypeIsolationModeUnwrapper,
				Trader:    s.unwrapperOf(ctx, action.InputMarketID),
				TradeData: tradedata.EncodeUnwrapper(tradedata.Unwrapper{Keys: []string{action.Key}}),
			}},
		},
		Expiry:  action.Expiry,
		TraceID: id.TraceIDFromParts(action.Key, "settle"),
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"owed": result.OwedAmount,
		"held": result.HeldAmount,
	}).Infoln("freezable: settled through executed withdrawal")

	rest, err := s.actions.Find(ctx, action.Key)
	if err != nil || rest == nil {
		return err
	}

	return s.release(ctx, rest)
}

func (s *vaultService) unwrapperOf(ctx context.Context, marketID uint64) string {
	market, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return ""
	}

	return market.Unwrapper
}

func (s *vaultService) OnDepositCallback(ctx context.Context, key string, outcome *core.RedemptionOutcome) error {
	log := logger.FromContext(ctx).WithField("action", key)
	ctx = logger.WithContext(ctx, log)

	action, err := s.pending(ctx, key, core.AsyncActionDeposit, outcome)
	if err != nil {
		return err
	}

	release, err := s.enter(action.Account())
	if err != nil {
		return err
	}
	defer release()

	traceID := id.TraceIDFromParts(key, "deposit_callback")

	if !outcome.Executed {
		err := s.reverse(ctx, action, false)
		s.record(ctx, traceID, core.TransactionActionDepositCallback, action, err, outcomeExtra(outcome))
		log.Infoln("freezable: deposit not executed, reversed")
		return err
	}

	err = s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		diff := outcome.OutputAmount.Sub(action.MinOutputAmount)
		if !diff.IsZero() {
			if err := tx.Add(ctx, action.Account(), action.OutputMarketID, diff); err != nil {
				return err
			}
		}

		s.deleteOnCommit(ctx, tx, key)
		return nil
	})

	s.record(ctx, traceID, core.TransactionActionDepositCallback, action, err, outcomeExtra(outcome))
	return err
}

// pending loads the pending action a callback refers to
func (s *vaultService) pending(ctx context.Context, key string, typ core.AsyncActionType, outcome *core.RedemptionOutcome) (*core.AsyncAction, error) {
	action, err := s.actions.Find(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := margin.Require(action != nil, core.ErrActionNotFound, "freezable/action-exists"); err != nil {
		return nil, err
	}

	if err := margin.Require(action.Type == typ && action.Status == core.AsyncActionPending, core.ErrInvalidCallback, "freezable/callback-matches-pending"); err != nil {
		return nil, err
	}

	if outcome.Executed {
		ok := number.IsInteger(outcome.OutputAmount) && !outcome.OutputAmount.IsNegative()
		if err := margin.Require(ok, core.ErrInvalidAmount, "freezable/callback-output"); err != nil {
			return nil, err
		}

		if err := margin.Require(outcome.OutputAmount.GreaterThanOrEqual(action.MinOutputAmount), core.ErrHopUnderDelivered, "freezable/callback-min-output"); err != nil {
			return nil, err
		}
	}

	return action, nil
}

func outcomeExtra(outcome *core.RedemptionOutcome) core.TransactionExtraData {
	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyExecuted, outcome.Executed)
	extra.Put(core.TransactionKeyRetryable, outcome.Retryable)
	extra.Put(core.TransactionKeyOutputAmount, outcome.OutputAmount)
	return extra
}
