package liquidation

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/id"
	"margin/pkg/margin"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config orchestrator options
type Config struct {
	// identity legs accept as caller
	Orchestrator      string
	LiquidationSpread core.Ratio
	ExpiryRampTime    time.Duration
	Now               func() time.Time
}

type liquidationService struct {
	cfg          Config
	ledger       core.Ledger
	markets      core.IMarketStore
	oracle       core.IPriceOracle
	accounts     core.IAccountService
	expiries     core.IExpiryStore
	registry     core.ILiquidatorRegistry
	traders      core.ITraderRegistry
	actions      core.IAsyncActionStore
	transactions core.TransactionStore
}

// New liquidation orchestrator
func New(
	cfg Config,
	ledger core.Ledger,
	markets core.IMarketStore,
	oracle core.IPriceOracle,
	accounts core.IAccountService,
	expiries core.IExpiryStore,
	registry core.ILiquidatorRegistry,
	traders core.ITraderRegistry,
	actions core.IAsyncActionStore,
	transactions core.TransactionStore,
) core.ILiquidationService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &liquidationService{
		cfg:          cfg,
		ledger:       ledger,
		markets:      markets,
		oracle:       oracle,
		accounts:     accounts,
		expiries:     expiries,
		registry:     registry,
		traders:      traders,
		actions:      actions,
		transactions: transactions,
	}
}

// attempt state of one Liquidate / Preview call
type attempt struct {
	req     *core.LiquidateRequest
	state   core.LiquidationState
	now     time.Time
	markets map[uint64]*core.Market
	held    *core.Market
	owed    *core.Market

	heldBalance decimal.Decimal
	owedBalance decimal.Decimal

	quote *core.LiquidationQuote
	hops  []hop
}

// hop a resolved plan trade
type hop struct {
	in, out   uint64
	minOutput decimal.Decimal
	param     core.TraderParam
	leg       core.ConversionLeg
	venue     core.ExternalVenue
}

func (s *liquidationService) Preview(ctx context.Context, req *core.LiquidateRequest) (*core.LiquidationQuote, error) {
	var quote *core.LiquidationQuote
	err := s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		a, err := s.prepare(ctx, tx, req)
		if err != nil {
			return err
		}

		quote = a.quote
		return nil
	})

	return quote, err
}

func (s *liquidationService) Liquidate(ctx context.Context, req *core.LiquidateRequest) (*core.LiquidationResult, error) {
	traceID := req.TraceID
	if traceID == "" {
		traceID = id.GenTraceID()
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"trace":  traceID,
		"solid":  req.Solid.String(),
		"liquid": req.Liquid.String(),
		"path":   req.Plan.MarketIDsPath.String(),
	})
	ctx = logger.WithContext(ctx, log)
	ctx = id.WithTraceID(ctx, traceID)

	result := &core.LiquidationResult{
		TraceID:      traceID,
		State:        core.LiquidationStateValidating,
		OutputAmount: decimal.Zero,
	}

	var a *attempt
	err := s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		var err error
		a, err = s.prepare(ctx, tx, req)
		result.State = a.state
		if a.quote != nil {
			result.LiquidationQuote = *a.quote
		}

		if err != nil {
			return err
		}

		log.Debugln("liquidation: executing")
		hops, output, err := s.execute(ctx, tx, a)
		result.Hops = hops
		result.OutputAmount = output
		if err != nil {
			return err
		}

		return s.reconcile(ctx, tx, a)
	})

	if err != nil {
		log.WithError(err).Infof("liquidation: reverted at %s", result.State)
		result.State = core.LiquidationStateReverted
	} else {
		result.State = core.LiquidationStateSettled
		log.Infof("liquidation: settled, owed %s held %s output %s", result.OwedAmount, result.HeldAmount, result.OutputAmount)
		if e := s.releaseExecuted(ctx, a); e != nil {
			log.WithError(e).Errorln("liquidation: release executed withdrawals")
		}
	}

	s.record(ctx, req, result, err)
	return result, err
}

// prepare runs the validating & planning states
func (s *liquidationService) prepare(ctx context.Context, tx core.LedgerTx, req *core.LiquidateRequest) (*attempt, error) {
	log := logger.FromContext(ctx)

	a := &attempt{
		req:   req,
		state: core.LiquidationStateValidating,
		now:   s.cfg.Now(),
	}

	log.Debugln("liquidation: validating")
	if err := s.validate(ctx, tx, a); err != nil {
		return a, err
	}

	a.state = core.LiquidationStatePlanning
	log.Debugln("liquidation: planning")
	if err := s.plan(ctx, a); err != nil {
		return a, err
	}

	if err := s.reward(ctx, a); err != nil {
		return a, err
	}

	a.state = core.LiquidationStateExecuting
	return a, nil
}

func (s *liquidationService) validate(ctx context.Context, tx core.LedgerTx, a *attempt) error {
	req := a.req
	path := req.Plan.MarketIDsPath

	if err := margin.Require(!req.Solid.IsZero() && !req.Liquid.IsZero(), core.ErrInvalidPlan, "liquidation/accounts-set"); err != nil {
		return err
	}

	if err := margin.Require(req.Solid != req.Liquid, core.ErrSelfLiquidation, "liquidation/solid-is-not-liquid"); err != nil {
		return err
	}

	if err := margin.Require(len(path) >= 2, core.ErrInvalidPlan, "liquidation/path-length"); err != nil {
		return err
	}

	if err := margin.Require(path.First() != path.Last(), core.ErrInvalidMarketPair, "liquidation/held-is-not-owed"); err != nil {
		return err
	}

	markets, err := s.markets.AllAsMap(ctx)
	if err != nil {
		return err
	}
	a.markets = markets

	for _, marketID := range path {
		if err := margin.Require(markets[marketID] != nil, core.ErrMarketNotFound, "liquidation/market-exists"); err != nil {
			return err
		}
	}

	a.held, a.owed = markets[path.First()], markets[path.Last()]

	if err := s.checkWhitelist(ctx, a); err != nil {
		return err
	}

	if a.heldBalance, err = tx.Balance(ctx, req.Liquid, a.held.ID); err != nil {
		return err
	}

	if a.owedBalance, err = tx.Balance(ctx, req.Liquid, a.owed.ID); err != nil {
		return err
	}

	if err := margin.Require(a.heldBalance.IsPositive(), core.ErrNoSupply, "liquidation/held-balance-positive"); err != nil {
		return err
	}

	if err := margin.Require(a.owedBalance.IsNegative(), core.ErrNoDebt, "liquidation/owed-balance-negative"); err != nil {
		return err
	}

	if err := margin.Require(a.held.AllowsDebt(a.owed.ID), core.ErrInvalidMarketPair, "liquidation/isolated-allows-debt"); err != nil {
		return err
	}

	if err := s.checkFrozen(ctx, a); err != nil {
		return err
	}

	if req.Expiry != nil {
		return s.checkExpiry(ctx, a)
	}

	balances, err := tx.Balances(ctx, req.Liquid)
	if err != nil {
		return err
	}

	liquidatable, err := s.accounts.IsLiquidatable(ctx, balances)
	if err != nil {
		return err
	}

	return margin.Require(liquidatable, core.ErrNotLiquidatable, "liquidation/account-liquidatable")
}

func (s *liquidationService) checkWhitelist(ctx context.Context, a *attempt) error {
	liquidator := a.req.Solid.Owner
	for idx, marketID := range a.req.Plan.MarketIDsPath {
		if idx > 0 && !a.markets[marketID].Isolated {
			continue
		}

		ok, err := s.registry.IsLiquidatorWhitelisted(ctx, marketID, liquidator)
		if err != nil {
			return err
		}

		if err := margin.Require(ok, core.ErrLiquidatorNotWhitelisted, "liquidation/liquidator-whitelisted"); err != nil {
			return err
		}
	}

	return nil
}

// checkFrozen frozen accounts only settle through the async unwrapper
func (s *liquidationService) checkFrozen(ctx context.Context, a *attempt) error {
	actions, err := s.actions.FindByAccount(ctx, a.req.Liquid)
	if err != nil {
		return err
	}

	if core.FreezeStateOf(actions) == core.Unfrozen {
		return nil
	}

	params := a.req.Plan.TraderParams
	ok := len(params) > 0 && params[0].Type == core.TraderTypeIsolationModeUnwrapper
	if ok {
		leg, found := s.traders.Leg(params[0].Trader)
		ok = found && leg.Mode() == core.LegModeAsynchronous
	}

	return margin.Require(ok, core.ErrAccountFrozen, "liquidation/frozen-through-async-unwrapper")
}

func (s *liquidationService) checkExpiry(ctx context.Context, a *attempt) error {
	expiry, err := s.expiries.Find(ctx, a.req.Liquid, a.owed.ID)
	if err != nil {
		return err
	}

	if err := margin.Require(expiry != nil && expiry.ExpiresAt.Equal(*a.req.Expiry), core.ErrExpiryMismatch, "liquidation/expiry-matches"); err != nil {
		return err
	}

	return margin.Require(margin.IsExpired(expiry.ExpiresAt, a.now), core.ErrNotExpired, "liquidation/expiry-matured")
}

func (s *liquidationService) reward(ctx context.Context, a *attempt) error {
	heldPrice, err := s.oracle.GetPrice(ctx, a.held.ID)
	if err != nil {
		return err
	}

	owedPrice, err := s.oracle.GetPrice(ctx, a.owed.ID)
	if err != nil {
		return err
	}

	spread := margin.PairSpread(s.cfg.LiquidationSpread, a.held, a.owed)
	adj := margin.LiquidationOwedPrice(owedPrice.Value, spread)
	if a.req.Expiry != nil {
		adj = margin.ExpiryOwedPrice(owedPrice.Value, spread, *a.req.Expiry, a.now, s.cfg.ExpiryRampTime)
	}

	settlement, err := margin.Settle(a.owedBalance.Neg(), a.heldBalance, a.req.Plan.AmountWeisPath[0], adj, heldPrice.Value)
	if err != nil {
		return err
	}

	a.quote = &core.LiquidationQuote{
		HeldMarketID: a.held.ID,
		OwedMarketID: a.owed.ID,
		OwedAmount:   settlement.OwedAmount,
		HeldAmount:   settlement.HeldAmount,
		HeldPrice:    heldPrice.Value,
		OwedPriceAdj: adj.Value(),
		CloseOut:     settlement.CloseOut,
		FullRepay:    settlement.FullRepay,
	}

	return nil
}
