package freezable

import (
	"context"

	"margin/core"
	"margin/pkg/id"
	"margin/pkg/margin"
	"margin/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// SubmitWithdrawal owner redemption of isolated tokens, the account stays frozen until the callback
func (s *vaultService) SubmitWithdrawal(ctx context.Context, req *core.WithdrawalRequest) (*core.AsyncAction, error) {
	release, err := s.enter(req.Account)
	if err != nil {
		return nil, err
	}
	defer release()

	action := &core.AsyncAction{
		Type:            core.AsyncActionWithdrawal,
		Status:          core.AsyncActionPending,
		Owner:           req.Account.Owner,
		Number:          req.Account.Number,
		InputMarketID:   req.InputMarketID,
		InputAmount:     req.InputAmount,
		OutputMarketID:  req.OutputMarketID,
		MinOutputAmount: req.MinOutputAmount,
		OutputAmount:    decimal.Zero,
		Requester:       req.Account.Owner,
	}

	err = s.submitWithdrawal(ctx, req, action)
	s.record(ctx, id.GenTraceID(), core.TransactionActionSubmitWithdrawal, action, err, nil)
	if err != nil {
		return nil, err
	}

	return action, nil
}

func (s *vaultService) submitWithdrawal(ctx context.Context, req *core.WithdrawalRequest, action *core.AsyncAction) error {
	if err := s.checkOwnerRequest(ctx, req.Account, req.InputAmount, req.MinOutputAmount); err != nil {
		return err
	}

	market, err := s.markets.Find(ctx, req.InputMarketID)
	if err != nil {
		return err
	}

	leg, err := s.asyncLeg(market, core.LegDirectionUnwrap)
	if err != nil {
		return err
	}

	if err := margin.Require(leg.IsValidCounterMarket(req.OutputMarketID), core.ErrInvalidMarketPair, "freezable/valid-output-market"); err != nil {
		return err
	}

	held, err := s.balance(ctx, req.Account, market.ID)
	if err != nil {
		return err
	}

	if err := margin.Require(req.InputAmount.LessThanOrEqual(held), core.ErrInvalidAmount, "freezable/withdrawal-covered"); err != nil {
		return err
	}

	if err := s.checkMinOutput(ctx, leg, req.InputMarketID, req.OutputMarketID, req.InputAmount, req.MinOutputAmount); err != nil {
		return err
	}

	r := *req
	r.IsLiquidation = false
	key, err := s.system.SubmitWithdrawal(ctx, &r)
	if err != nil {
		return err
	}

	action.Key = key
	return s.actions.Create(ctx, action)
}

// SubmitDeposit wraps liquid tokens into the isolated market, minOutput is credited until the callback
func (s *vaultService) SubmitDeposit(ctx context.Context, req *core.DepositRequest) (*core.AsyncAction, error) {
	release, err := s.enter(req.Account)
	if err != nil {
		return nil, err
	}
	defer release()

	action := &core.AsyncAction{
		Type:            core.AsyncActionDeposit,
		Status:          core.AsyncActionPending,
		Owner:           req.Account.Owner,
		Number:          req.Account.Number,
		InputMarketID:   req.InputMarketID,
		InputAmount:     req.InputAmount,
		OutputMarketID:  req.OutputMarketID,
		MinOutputAmount: req.MinOutputAmount,
		OutputAmount:    decimal.Zero,
		Requester:       req.Account.Owner,
	}

	err = s.submitDeposit(ctx, req, action)
	s.record(ctx, id.GenTraceID(), core.TransactionActionSubmitDeposit, action, err, nil)
	if err != nil {
		return nil, err
	}

	return action, nil
}

func (s *vaultService) submitDeposit(ctx context.Context, req *core.DepositRequest, action *core.AsyncAction) error {
	log := logger.FromContext(ctx)

	if err := s.checkOwnerRequest(ctx, req.Account, req.InputAmount, req.MinOutputAmount); err != nil {
		return err
	}

	market, err := s.markets.Find(ctx, req.OutputMarketID)
	if err != nil {
		return err
	}

	leg, err := s.asyncLeg(market, core.LegDirectionWrap)
	if err != nil {
		return err
	}

	if err := margin.Require(leg.IsValidCounterMarket(req.InputMarketID), core.ErrInvalidMarketPair, "freezable/valid-input-market"); err != nil {
		return err
	}

	funds, err := s.balance(ctx, req.Account, req.InputMarketID)
	if err != nil {
		return err
	}

	if err := margin.Require(req.InputAmount.LessThanOrEqual(funds), core.ErrInvalidAmount, "freezable/deposit-funded"); err != nil {
		return err
	}

	if err := s.checkMinOutput(ctx, leg, req.InputMarketID, req.OutputMarketID, req.InputAmount, req.MinOutputAmount); err != nil {
		return err
	}

	key, err := s.system.SubmitDeposit(ctx, req)
	if err != nil {
		return err
	}

	action.Key = key
	if err := s.actions.Create(ctx, action); err != nil {
		s.abandon(ctx, key)
		return err
	}

	err = s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		if err := tx.Add(ctx, req.Account, req.InputMarketID, req.InputAmount.Neg()); err != nil {
			return err
		}

		if req.MinOutputAmount.IsPositive() {
			return tx.Add(ctx, req.Account, req.OutputMarketID, req.MinOutputAmount)
		}

		return nil
	})

	if err != nil {
		s.abandon(ctx, key)
		if e := s.actions.Delete(ctx, key); e != nil {
			log.WithError(e).Errorln("actions.Delete", key)
		}
	}

	return err
}

func (s *vaultService) abandon(ctx context.Context, key string) {
	if err := s.system.Cancel(ctx, key); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("freezable: abandon request", key)
	}
}

// checkOwnerRequest amounts are integer wei and the account has nothing outstanding
func (s *vaultService) checkOwnerRequest(ctx context.Context, account core.AccountID, amount, minOutput decimal.Decimal) error {
	if err := margin.Require(!account.IsZero(), core.ErrInvalidAmount, "freezable/account-set"); err != nil {
		return err
	}

	ok := amount.IsPositive() && number.IsInteger(amount) && !minOutput.IsNegative() && number.IsInteger(minOutput)
	if err := margin.Require(ok, core.ErrInvalidAmount, "freezable/integer-amounts"); err != nil {
		return err
	}

	state, err := s.FreezeState(ctx, account)
	if err != nil {
		return err
	}

	return margin.Require(state == core.Unfrozen, core.ErrAccountFrozen, "freezable/account-unfrozen")
}

func (s *vaultService) checkMinOutput(ctx context.Context, leg core.ConversionLeg, in, out uint64, amount, minOutput decimal.Decimal) error {
	quote, err := leg.GetExchangeCost(ctx, in, out, amount, nil)
	if err != nil {
		return err
	}

	return margin.Require(minOutput.LessThanOrEqual(quote), core.ErrMinOutputTooLarge, "freezable/min-output-honored")
}

// Cancel a pending action, requester only
func (s *vaultService) Cancel(ctx context.Context, caller, key string) error {
	log := logger.FromContext(ctx).WithField("action", key)
	ctx = logger.WithContext(ctx, log)

	action, err := s.actions.Find(ctx, key)
	if err != nil {
		return err
	}

	if err := margin.Require(action != nil, core.ErrActionNotFound, "freezable/action-exists"); err != nil {
		return err
	}

	release, err := s.enter(action.Account())
	if err != nil {
		return err
	}
	defer release()

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyCaller, caller)

	err = s.cancel(ctx, caller, action)
	s.record(ctx, id.TraceIDFromParts(key, "cancel"), core.TransactionActionCancel, action, err, extra)
	if err != nil {
		log.WithError(err).Infoln("freezable: cancel rejected")
	}

	return err
}

func (s *vaultService) cancel(ctx context.Context, caller string, action *core.AsyncAction) error {
	if err := margin.Require(caller != "" && caller == action.Requester, core.ErrOperationForbidden, "freezable/requester-cancels"); err != nil {
		return err
	}

	if err := margin.Require(action.Status == core.AsyncActionPending, core.ErrInvalidCallback, "freezable/cancel-pending"); err != nil {
		return err
	}

	if action.Type == core.AsyncActionWithdrawal {
		if err := s.system.Cancel(ctx, action.Key); err != nil {
			return err
		}

		return s.actions.Delete(ctx, action.Key)
	}

	if err := s.checkReversal(ctx, action); err != nil {
		return err
	}

	if err := s.system.Cancel(ctx, action.Key); err != nil {
		return err
	}

	return s.reverse(ctx, action, true)
}

// checkReversal the account stays collateralized once the deposit is reversed
func (s *vaultService) checkReversal(ctx context.Context, action *core.AsyncAction) error {
	balances, err := s.ledger.Balances(ctx, action.Account())
	if err != nil {
		return err
	}

	balances = balances.Clone()
	balances[action.OutputMarketID] = balances.Get(action.OutputMarketID).Sub(action.MinOutputAmount)
	balances[action.InputMarketID] = balances.Get(action.InputMarketID).Add(action.InputAmount)

	ok, err := s.accounts.IsCollateralized(ctx, balances)
	if err != nil {
		return err
	}

	return margin.Require(ok, core.ErrCancelUnsafe, "freezable/cancel-keeps-collateralized")
}

// Unwind recovers a stuck action: admins always, anyone for a retryable executed withdrawal of a healthy account
func (s *vaultService) Unwind(ctx context.Context, caller, key string) error {
	log := logger.FromContext(ctx).WithField("action", key)
	ctx = logger.WithContext(ctx, log)

	action, err := s.actions.Find(ctx, key)
	if err != nil {
		return err
	}

	if err := margin.Require(action != nil, core.ErrActionNotFound, "freezable/action-exists"); err != nil {
		return err
	}

	release, err := s.enter(action.Account())
	if err != nil {
		return err
	}
	defer release()

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyCaller, caller)

	err = s.unwind(ctx, caller, action)
	s.record(ctx, id.TraceIDFromParts(key, "unwind", caller), core.TransactionActionUnwind, action, err, extra)
	if err != nil {
		log.WithError(err).Infoln("freezable: unwind rejected")
	} else {
		log.Infoln("freezable: unwound by", caller)
	}

	return err
}

func (s *vaultService) unwind(ctx context.Context, caller string, action *core.AsyncAction) error {
	admin := s.isAdmin(caller)

	if action.Status == core.AsyncActionPending {
		if err := margin.Require(admin, core.ErrOperationForbidden, "freezable/admin-unwinds-pending"); err != nil {
			return err
		}

		s.abandon(ctx, action.Key)
		if action.Type == core.AsyncActionDeposit {
			return s.reverse(ctx, action, false)
		}

		return s.actions.Delete(ctx, action.Key)
	}

	if !admin {
		if err := margin.Require(action.Retryable, core.ErrOperationForbidden, "freezable/unwind-retryable"); err != nil {
			return err
		}

		liquidatable, err := s.isLiquidatable(ctx, action.Account(), action.OwedMarketID, action.Expiry)
		if err != nil {
			return err
		}

		if err := margin.Require(!liquidatable, core.ErrOperationForbidden, "freezable/unwind-healthy-account"); err != nil {
			return err
		}
	}

	return s.release(ctx, action)
}
