package freezable

import (
	"context"

	"margin/core"
	"margin/pkg/id"
	"margin/pkg/margin"
	"margin/pkg/tradedata"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PrepareForLiquidation freezes a liquidatable isolated position and submits the withdrawal of its full balance
func (s *vaultService) PrepareForLiquidation(ctx context.Context, req *core.PrepareLiquidationRequest) (*core.AsyncAction, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"solid":  req.Solid.String(),
		"liquid": req.Liquid.String(),
		"market": req.InputMarketID,
	})
	ctx = logger.WithContext(ctx, log)

	release, err := s.enter(req.Liquid)
	if err != nil {
		return nil, err
	}
	defer release()

	action := &core.AsyncAction{
		Type:            core.AsyncActionWithdrawal,
		Status:          core.AsyncActionPending,
		Owner:           req.Liquid.Owner,
		Number:          req.Liquid.Number,
		InputMarketID:   req.InputMarketID,
		InputAmount:     req.InputAmount,
		OutputMarketID:  req.OutputMarketID,
		MinOutputAmount: decimal.Zero,
		OutputAmount:    decimal.Zero,
		IsLiquidation:   true,
		Requester:       req.Solid.Owner,
		SolidOwner:      req.Solid.Owner,
		SolidNumber:     req.Solid.Number,
		OwedMarketID:    req.OwedMarketID,
		Expiry:          req.Expiry,
	}

	traceID := id.GenTraceID()
	err = s.prepare(ctx, req, action)
	s.record(ctx, traceID, core.TransactionActionPrepareLiquidation, action, err, solidExtra(req.Solid))
	if err != nil {
		log.WithError(err).Infoln("freezable: prepare rejected")
		return nil, err
	}

	log.Infof("freezable: withdrawal %s submitted for %s", action.Key, action.InputAmount)
	return action, nil
}

func (s *vaultService) prepare(ctx context.Context, req *core.PrepareLiquidationRequest, action *core.AsyncAction) error {
	if err := margin.Require(!req.Solid.IsZero() && !req.Liquid.IsZero(), core.ErrInvalidAmount, "freezable/accounts-set"); err != nil {
		return err
	}

	if err := margin.Require(req.Solid != req.Liquid, core.ErrSelfLiquidation, "freezable/solid-is-not-liquid"); err != nil {
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

	if err := margin.Require(market.AllowsDebt(req.OwedMarketID), core.ErrInvalidMarketPair, "freezable/isolated-allows-debt"); err != nil {
		return err
	}

	ok, err := s.registry.IsLiquidatorWhitelisted(ctx, market.ID, req.Solid.Owner)
	if err != nil {
		return err
	}

	if err := margin.Require(ok, core.ErrLiquidatorNotWhitelisted, "freezable/liquidator-whitelisted"); err != nil {
		return err
	}

	actions, err := s.actions.FindByAccount(ctx, req.Liquid)
	if err != nil {
		return err
	}

	if err := margin.Require(core.FreezeStateOf(actions) != core.FrozenPendingWithdrawal, core.ErrAccountFrozen, "freezable/no-pending-withdrawal"); err != nil {
		return err
	}

	owed, err := s.balance(ctx, req.Liquid, req.OwedMarketID)
	if err != nil {
		return err
	}

	if err := margin.Require(owed.IsNegative(), core.ErrNoDebt, "freezable/owed-balance-negative"); err != nil {
		return err
	}

	if req.Expiry != nil {
		if err := s.checkExpiry(ctx, req.Liquid, req.OwedMarketID, *req.Expiry); err != nil {
			return err
		}
	} else {
		liquidatable, err := s.isLiquidatable(ctx, req.Liquid, req.OwedMarketID, nil)
		if err != nil {
			return err
		}

		if err := margin.Require(liquidatable, core.ErrNotLiquidatable, "freezable/account-liquidatable"); err != nil {
			return err
		}
	}

	held, err := s.balance(ctx, req.Liquid, market.ID)
	if err != nil {
		return err
	}

	// minOutput credited by pending deposits is reversed when they are cancelled
	full := held
	for _, a := range actions {
		if a.Type == core.AsyncActionDeposit && a.OutputMarketID == market.ID {
			full = full.Sub(a.MinOutputAmount)
		}
	}

	if err := margin.Require(full.IsPositive(), core.ErrNoSupply, "freezable/held-balance-positive"); err != nil {
		return err
	}

	if err := margin.Require(req.InputAmount.Equal(full), core.ErrPartialLiquidation, "freezable/full-balance"); err != nil {
		return err
	}

	data, err := tradedata.DecodeUnwrapper(req.TradeData)
	if err != nil {
		return &margin.RequireError{Code: core.ErrInvalidTradeData, Reason: "freezable/trade-data"}
	}

	quote, err := leg.GetExchangeCost(ctx, req.InputMarketID, req.OutputMarketID, req.InputAmount, nil)
	if err != nil {
		return err
	}

	if err := margin.Require(data.MinOutput.LessThanOrEqual(quote), core.ErrMinOutputTooLarge, "freezable/min-output-honored"); err != nil {
		return err
	}

	s.cancelDeposits(ctx, actions)

	key, err := s.system.SubmitWithdrawal(ctx, &core.WithdrawalRequest{
		Account:         req.Liquid,
		InputMarketID:   req.InputMarketID,
		InputAmount:     req.InputAmount,
		OutputMarketID:  req.OutputMarketID,
		MinOutputAmount: data.MinOutput,
		IsLiquidation:   true,
	})
	if err != nil {
		return err
	}

	action.Key = key
	action.MinOutputAmount = data.MinOutput
	return s.actions.Create(ctx, action)
}

// cancelDeposits best effort cancellation of the pending deposits of a liquidated account
func (s *vaultService) cancelDeposits(ctx context.Context, actions []*core.AsyncAction) {
	log := logger.FromContext(ctx)

	for _, action := range actions {
		if action.Type != core.AsyncActionDeposit {
			continue
		}

		if err := s.system.Cancel(ctx, action.Key); err != nil {
			log.WithError(err).Warnln("freezable: cancel deposit", action.Key)
			continue
		}

		if err := s.reverse(ctx, action, false); err != nil {
			log.WithError(err).Errorln("freezable: reverse deposit", action.Key)
		}
	}
}

func solidExtra(solid core.AccountID) core.TransactionExtraData {
	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeySolid, solid.String())
	return extra
}
