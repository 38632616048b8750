package cmd

import (
	"fmt"
	"time"

	"margin/core"
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

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

func mustRatio(v string) core.Ratio {
	r, err := core.ParseRatio(v)
	if err != nil {
		panic(fmt.Errorf("parse ratio %q: %w", v, err))
	}

	return r
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideLedger(db *db.DB) core.Ledger {
	return ledger.New(db)
}

func provideMarketStore(db *db.DB) core.IMarketStore {
	return market.New(db)
}

func providePriceStore(db *db.DB) core.IPriceStore {
	return price.New(db)
}

func provideExpiryStore(db *db.DB) core.IExpiryStore {
	return expiry.New(db)
}

func provideAsyncActionStore(db *db.DB) core.IAsyncActionStore {
	return asyncaction.New(db)
}

func provideTransactionStore(db *db.DB) core.TransactionStore {
	return transaction.New(db)
}

func provideWhitelistStore(property property.Store) core.IWhitelistStore {
	return whitelist.New(property)
}

// ------------------service------------------------------------

func providePriceOracle(feed core.IPriceFeed) core.IPriceOracle {
	return oracle.New(feed, oracle.Config{CacheTTL: time.Second})
}

func provideAccountService(markets core.IMarketStore, expiries core.IExpiryStore, oracle core.IPriceOracle) core.IAccountService {
	return account.New(markets, expiries, oracle, mustRatio(cfg.Risk.MinCollateralization))
}

func provideLiquidatorRegistry(whitelists core.IWhitelistStore) core.ILiquidatorRegistry {
	return registry.New(whitelists, cfg.Admins)
}

func provideTraderRegistry(markets core.IMarketStore, oracle core.IPriceOracle, actions core.IAsyncActionStore) core.ITraderRegistry {
	rates := trader.OracleRates(oracle)

	legs := make([]core.ConversionLeg, 0, len(cfg.Legs))
	for _, spec := range cfg.Legs {
		c := trader.LegConfig{
			Name:         spec.Name,
			Isolated:     spec.IsolatedMarket,
			Counters:     spec.CounterMarkets,
			Orchestrator: cfg.App.OrchestratorID,
		}

		if spec.Fee != "" {
			c.Fee = mustRatio(spec.Fee)
		}

		if spec.Direction == core.LegDirectionWrap.String() {
			c.Direction = core.LegDirectionWrap
		}

		switch {
		case spec.Mode != core.LegModeAsynchronous.String():
			legs = append(legs, trader.NewSync(c, rates))
		case c.Direction == core.LegDirectionWrap:
			legs = append(legs, trader.NewAsyncWrapper(c, rates))
		default:
			legs = append(legs, trader.NewAsyncUnwrapper(c, rates, actions))
		}
	}

	venues := make([]core.ExternalVenue, 0, len(cfg.Venues))
	for _, spec := range cfg.Venues {
		switch spec.Kind {
		case "http":
			venues = append(venues, venue.NewHTTPVenue(spec.Name, spec.Endpoint))
		default:
			venues = append(venues, venue.NewOracleVenue(spec.Name, markets, oracle, spec.Slippage))
		}
	}

	return trader.NewRegistry(legs, venues)
}

func provideRedemptionSystem(markets core.IMarketStore, traders core.ITraderRegistry) *redemption.System {
	return redemption.New(redemption.Config{Delay: cfg.Redemption.Delay}, markets, traders)
}

// engine every store and service of one process
type engine struct {
	db           *db.DB
	property     property.Store
	ledger       core.Ledger
	markets      core.IMarketStore
	prices       core.IPriceStore
	expiries     core.IExpiryStore
	actions      core.IAsyncActionStore
	transactions core.TransactionStore
	whitelists   core.IWhitelistStore
	oracle       core.IPriceOracle
	accounts     core.IAccountService
	registry     core.ILiquidatorRegistry
	traders      core.ITraderRegistry
	redemption   *redemption.System
	liquidation  core.ILiquidationService
	freezable    core.IFreezableVaultService
	position     core.IPositionService
	planner      core.IPlanner
}

func provideEngine() *engine {
	e := &engine{db: provideDatabase()}

	e.property = providePropertyStore(e.db)
	e.ledger = provideLedger(e.db)
	e.markets = provideMarketStore(e.db)
	e.prices = providePriceStore(e.db)
	e.expiries = provideExpiryStore(e.db)
	e.actions = provideAsyncActionStore(e.db)
	e.transactions = provideTransactionStore(e.db)
	e.whitelists = provideWhitelistStore(e.property)

	e.oracle = providePriceOracle(e.prices)
	e.accounts = provideAccountService(e.markets, e.expiries, e.oracle)
	e.registry = provideLiquidatorRegistry(e.whitelists)
	e.traders = provideTraderRegistry(e.markets, e.oracle, e.actions)
	e.redemption = provideRedemptionSystem(e.markets, e.traders)

	e.liquidation = liquidation.New(
		liquidation.Config{
			Orchestrator:      cfg.App.OrchestratorID,
			LiquidationSpread: mustRatio(cfg.Risk.LiquidationSpread),
			ExpiryRampTime:    cfg.Risk.ExpiryRampTime,
		},
		e.ledger, e.markets, e.oracle, e.accounts, e.expiries, e.registry, e.traders, e.actions, e.transactions,
	)

	e.freezable = freezable.New(
		freezable.Config{Admins: cfg.Admins},
		e.ledger, e.markets, e.accounts, e.expiries, e.registry, e.traders, e.actions, e.redemption, e.liquidation, e.transactions,
	)

	e.position = position.New(e.ledger, e.markets, e.accounts, e.expiries, e.actions)
	e.planner = planner.New(
		planner.Config{Slippage: cfg.Liquidator.Slippage},
		e.ledger, e.markets, e.oracle, e.accounts, e.expiries, e.traders, e.actions,
	)

	return e
}
