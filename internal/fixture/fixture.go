// Package fixture wires the engine over in memory stores for package tests
package fixture

import (
	"context"
	"sync"
	"time"

	"margin/core"
	"margin/pkg/number"
	"margin/service/account"
	"margin/service/freezable"
	"margin/service/liquidation"
	"margin/service/oracle"
	"margin/service/planner"
	"margin/service/position"
	"margin/service/redemption"
	"margin/service/registry"
	"margin/service/trader"
	"margin/service/venue"
	"margin/store/asyncaction"
	"margin/store/expiry"
	"margin/store/ledger"
	"margin/store/market"
	"margin/store/price"
	"margin/store/transaction"
	"margin/store/whitelist"

	"github.com/shopspring/decimal"
)

const (
	MarketX    uint64 = 1
	MarketUSDC uint64 = 2
	MarketWETH uint64 = 3
	// isolated, synchronous legs into usdc
	MarketJX uint64 = 4
	// isolated, asynchronous legs, unwraps into usdc or weth
	MarketGX uint64 = 5

	Orchestrator = "orchestrator"
	Admin        = "admin"
	Venue        = "oracle"
	// VenueLossy fills 10% below the oracle price
	VenueLossy = "lossy"
)

var (
	// Keeper the liquidator's solid account
	Keeper = core.AccountID{Owner: "keeper", Number: 1}
	// Alice a margin trader
	Alice = core.AccountID{Owner: "alice", Number: 1}
	// Start the fixture clock
	Start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Env an engine over memory stores with a settable clock
type Env struct {
	Ledger       core.Ledger
	Markets      core.IMarketStore
	Prices       core.IPriceStore
	Oracle       core.IPriceOracle
	Accounts     core.IAccountService
	Expiries     core.IExpiryStore
	Registry     core.ILiquidatorRegistry
	Traders      core.ITraderRegistry
	Actions      core.IAsyncActionStore
	Transactions core.TransactionStore
	Liquidation  core.ILiquidationService
	Freezable    core.IFreezableVaultService
	Position     core.IPositionService
	Planner      core.IPlanner
	Redemption   *redemption.System

	mux sync.Mutex
	now time.Time
}

// Markets of the fixture, prices in units of the numeraire
func Markets() []*core.Market {
	return []*core.Market{
		{ID: MarketX, AssetID: "x", Symbol: "X", Decimals: 18},
		{ID: MarketUSDC, AssetID: "usdc", Symbol: "USDC", Decimals: 6},
		{ID: MarketWETH, AssetID: "weth", Symbol: "WETH", Decimals: 18},
		{
			ID: MarketJX, AssetID: "jx", Symbol: "jX", Decimals: 18,
			Isolated:           true,
			AllowedDebtMarkets: []uint64{MarketUSDC},
			Unwrapper:          "jx-unwrapper",
			Wrapper:            "jx-wrapper",
		},
		{
			ID: MarketGX, AssetID: "gx", Symbol: "gX", Decimals: 18,
			Isolated:           true,
			Async:              true,
			AllowedDebtMarkets: []uint64{MarketUSDC},
			Unwrapper:          "gx-unwrapper",
			Wrapper:            "gx-wrapper",
		},
	}
}

// New engine with X at 1.0219, USDC at 1, WETH at 2000, jX at 1.5 and gX at 2
func New() *Env {
	e := &Env{now: Start}

	e.Ledger = ledger.Memory()
	e.Markets = market.Memory(Markets()...)
	e.Prices = price.Memory()
	e.Oracle = oracle.New(e.Prices, oracle.Config{Now: e.Now})
	e.Expiries = expiry.Memory()
	e.Actions = asyncaction.Memory()
	e.Transactions = transaction.Memory()
	e.Accounts = account.New(e.Markets, e.Expiries, e.Oracle, core.NewRatio(115, 100))
	e.Registry = registry.New(whitelist.Memory(), []string{Admin})

	rates := trader.OracleRates(e.Oracle)
	leg := func(name string, isolated uint64) trader.LegConfig {
		return trader.LegConfig{
			Name:         name,
			Isolated:     isolated,
			Counters:     []uint64{MarketUSDC},
			Orchestrator: Orchestrator,
		}
	}

	e.Traders = trader.NewRegistry(
		[]core.ConversionLeg{
			trader.NewSync(unwrap(leg("jx-unwrapper", MarketJX)), rates),
			trader.NewSync(wrap(leg("jx-wrapper", MarketJX)), rates),
			trader.NewAsyncUnwrapper(counters(leg("gx-unwrapper", MarketGX), MarketWETH), rates, e.Actions),
			trader.NewAsyncWrapper(leg("gx-wrapper", MarketGX), rates),
		},
		[]core.ExternalVenue{
			venue.NewOracleVenue(Venue, e.Markets, e.Oracle, decimal.Zero),
			venue.NewOracleVenue(VenueLossy, e.Markets, e.Oracle, decimal.NewFromFloat(0.1)),
		},
	)

	e.Liquidation = liquidation.New(
		liquidation.Config{
			Orchestrator:      Orchestrator,
			LiquidationSpread: core.NewRatio(105, 100),
			ExpiryRampTime:    time.Hour,
			Now:               e.Now,
		},
		e.Ledger, e.Markets, e.Oracle, e.Accounts, e.Expiries, e.Registry, e.Traders, e.Actions, e.Transactions,
	)

	e.Redemption = redemption.New(redemption.Config{Delay: time.Minute, Now: e.Now}, e.Markets, e.Traders)
	e.Freezable = freezable.New(
		freezable.Config{Admins: []string{Admin}, Now: e.Now},
		e.Ledger, e.Markets, e.Accounts, e.Expiries, e.Registry, e.Traders, e.Actions, e.Redemption, e.Liquidation, e.Transactions,
	)

	e.Position = position.New(e.Ledger, e.Markets, e.Accounts, e.Expiries, e.Actions)
	e.Planner = planner.New(planner.Config{Now: e.Now}, e.Ledger, e.Markets, e.Oracle, e.Accounts, e.Expiries, e.Traders, e.Actions)

	e.SetPrice(MarketX, "1.0219")
	e.SetPrice(MarketUSDC, "1")
	e.SetPrice(MarketWETH, "2000")
	e.SetPrice(MarketJX, "1.5")
	e.SetPrice(MarketGX, "2")
	return e
}

func unwrap(cfg trader.LegConfig) trader.LegConfig {
	cfg.Direction = core.LegDirectionUnwrap
	return cfg
}

func counters(cfg trader.LegConfig, markets ...uint64) trader.LegConfig {
	cfg.Counters = append(cfg.Counters, markets...)
	return cfg
}

func wrap(cfg trader.LegConfig) trader.LegConfig {
	cfg.Direction = core.LegDirectionWrap
	return cfg
}

// Now the fixture clock
func (e *Env) Now() time.Time {
	e.mux.Lock()
	defer e.mux.Unlock()
	return e.now
}

// Advance the fixture clock
func (e *Env) Advance(d time.Duration) {
	e.mux.Lock()
	e.now = e.now.Add(d)
	e.mux.Unlock()
}

// SetPrice of one whole token in numeraire units
func (e *Env) SetPrice(marketID uint64, unit string) {
	m, err := e.Markets.Find(context.Background(), marketID)
	if err != nil {
		panic(err)
	}

	err = e.Prices.Save(context.Background(), &core.Price{
		MarketID:   marketID,
		Value:      number.Price(decimal.RequireFromString(unit), m.Decimals),
		ValidUntil: Start.AddDate(100, 0, 0),
	})
	if err != nil {
		panic(err)
	}
}

// Fund adds signed wei to an account
func (e *Env) Fund(account core.AccountID, marketID uint64, wei decimal.Decimal) {
	err := e.Ledger.Tx(context.Background(), func(tx core.LedgerTx) error {
		return tx.Add(context.Background(), account, marketID, wei)
	})
	if err != nil {
		panic(err)
	}
}

// Balance in wei
func (e *Env) Balance(account core.AccountID, marketID uint64) decimal.Decimal {
	balances, err := e.Ledger.Balances(context.Background(), account)
	if err != nil {
		panic(err)
	}

	return balances.Get(marketID)
}

// Snapshot every balance of accounts as strings, for byte identical comparisons
func (e *Env) Snapshot(accounts ...core.AccountID) map[string]map[uint64]string {
	snapshot := make(map[string]map[uint64]string, len(accounts))
	for _, account := range accounts {
		balances, err := e.Ledger.Balances(context.Background(), account)
		if err != nil {
			panic(err)
		}

		row := make(map[uint64]string, len(balances))
		for id, v := range balances {
			row[id] = v.String()
		}

		snapshot[account.String()] = row
	}

	return snapshot
}

// Deliver due redemption outcomes to the vault, returns the number delivered
func (e *Env) Deliver(ctx context.Context) int {
	var n int
	for _, d := range e.Redemption.Due(ctx) {
		var err error
		if d.Type == core.AsyncActionDeposit {
			err = e.Freezable.OnDepositCallback(ctx, d.Key, &d.Outcome)
		} else {
			err = e.Freezable.OnWithdrawalCallback(ctx, d.Key, &d.Outcome)
		}

		if err == nil {
			e.Redemption.Ack(d.Key)
			n++
		}
	}

	return n
}

// Wei whole tokens in wei
func Wei(amount string, decimals int32) decimal.Decimal {
	return number.Wei(decimal.RequireFromString(amount), decimals)
}
