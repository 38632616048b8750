package planner

import (
	"context"
	"sort"
	"time"

	"margin/core"
	"margin/pkg/routes"
	"margin/pkg/tradedata"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// Config planner options
type Config struct {
	// min output of a liquidation withdrawal, as a share of the quote kept
	Slippage decimal.Decimal
	// expired tags scanned per Candidates call
	ExpiryLimit int
	Now         func() time.Time
}

type planner struct {
	cfg      Config
	ledger   core.Ledger
	markets  core.IMarketStore
	oracle   core.IPriceOracle
	accounts core.IAccountService
	expiries core.IExpiryStore
	traders  core.ITraderRegistry
	actions  core.IAsyncActionStore
}

// New candidate plan builder for the liquidation keeper
func New(
	cfg Config,
	ledger core.Ledger,
	markets core.IMarketStore,
	oracle core.IPriceOracle,
	accounts core.IAccountService,
	expiries core.IExpiryStore,
	traders core.ITraderRegistry,
	actions core.IAsyncActionStore,
) core.IPlanner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.ExpiryLimit <= 0 {
		cfg.ExpiryLimit = 500
	}

	return &planner{
		cfg:      cfg,
		ledger:   ledger,
		markets:  markets,
		oracle:   oracle,
		accounts: accounts,
		expiries: expiries,
		traders:  traders,
		actions:  actions,
	}
}

func (p *planner) Candidates(ctx context.Context, solid core.AccountID) ([]*core.Candidate, error) {
	log := logger.FromContext(ctx)

	accounts, err := p.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []*core.Candidate
	for _, liquid := range accounts {
		if liquid == solid {
			continue
		}

		balances, err := p.ledger.Balances(ctx, liquid)
		if err != nil {
			return nil, err
		}

		liquidatable, err := p.accounts.IsLiquidatable(ctx, balances)
		if err != nil {
			log.WithError(err).Warnln("planner: evaluate", liquid.String())
			continue
		}

		if !liquidatable {
			continue
		}

		if c, err := p.candidate(ctx, liquid, nil); err != nil {
			log.WithError(err).Warnln("planner: plans", liquid.String())
		} else if c != nil {
			candidates = append(candidates, c)
		}
	}

	expired, err := p.expiries.ListExpired(ctx, p.cfg.Now(), p.cfg.ExpiryLimit)
	if err != nil {
		return nil, err
	}

	for _, tag := range expired {
		if tag.Account() == solid {
			continue
		}

		expiry := tag.ExpiresAt
		if c, err := p.candidate(ctx, tag.Account(), &expiry); err != nil {
			log.WithError(err).Warnln("planner: expiry plans", tag.Account().String())
		} else if c != nil {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

func (p *planner) candidate(ctx context.Context, liquid core.AccountID, expiry *time.Time) (*core.Candidate, error) {
	actions, err := p.actions.FindByAccount(ctx, liquid)
	if err != nil {
		return nil, err
	}

	c := &core.Candidate{Liquid: liquid, Expiry: expiry}

	switch core.FreezeStateOf(actions) {
	case core.FrozenPendingWithdrawal:
		// only executed retryable withdrawals can be settled by a plan
		c.Plans = p.executedPlans(ctx, liquid, actions, expiry)
		if len(c.Plans) == 0 {
			return nil, nil
		}

		return c, nil
	}

	c.Plans, err = p.Plans(ctx, liquid, expiry)
	if err != nil {
		return nil, err
	}

	if len(c.Plans) == 0 {
		c.Prepare, err = p.prepare(ctx, liquid, expiry, actions)
		if err != nil || c.Prepare == nil {
			return nil, err
		}

		c.NeedsPrepare = true
	}

	return c, nil
}

// Plans candidate plans for liquid, largest collateral first
func (p *planner) Plans(ctx context.Context, liquid core.AccountID, expiry *time.Time) ([]*core.Plan, error) {
	markets, err := p.markets.AllAsMap(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := p.ledger.Balances(ctx, liquid)
	if err != nil {
		return nil, err
	}

	owedID, err := p.owed(ctx, liquid, balances, expiry)
	if err != nil || owedID == 0 {
		return nil, err
	}

	var plans []*core.Plan
	for _, heldID := range p.heldByValue(ctx, balances) {
		held := markets[heldID]
		if held == nil || !held.AllowsDebt(owedID) {
			continue
		}

		if plan := p.route(ctx, markets, held, owedID, balances.Get(heldID)); plan != nil {
			plans = append(plans, plan)
		}
	}

	return plans, nil
}

// owed the expiry tagged market, or the largest debt by value
func (p *planner) owed(ctx context.Context, liquid core.AccountID, balances core.Balances, expiry *time.Time) (uint64, error) {
	if expiry != nil {
		for _, id := range balances.MarketIDs() {
			if !balances.Get(id).IsNegative() {
				continue
			}

			tag, err := p.expiries.Find(ctx, liquid, id)
			if err != nil {
				return 0, err
			}

			if tag != nil && tag.ExpiresAt.Equal(*expiry) {
				return id, nil
			}
		}

		return 0, nil
	}

	var (
		owedID uint64
		max    = decimal.Zero
	)

	for _, id := range balances.MarketIDs() {
		if !balances.Get(id).IsNegative() {
			continue
		}

		if v := p.value(ctx, id, balances.Get(id).Neg()); owedID == 0 || v.GreaterThan(max) {
			owedID, max = id, v
		}
	}

	return owedID, nil
}

func (p *planner) heldByValue(ctx context.Context, balances core.Balances) []uint64 {
	var ids []uint64
	values := map[uint64]decimal.Decimal{}
	for _, id := range balances.MarketIDs() {
		if balances.Get(id).IsPositive() {
			ids = append(ids, id)
			values[id] = p.value(ctx, id, balances.Get(id))
		}
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return values[ids[i]].GreaterThan(values[ids[j]])
	})

	return ids
}

func (p *planner) value(ctx context.Context, marketID uint64, amount decimal.Decimal) decimal.Decimal {
	price, err := p.oracle.GetPrice(ctx, marketID)
	if err != nil {
		return decimal.Zero
	}

	return amount.Mul(price.Value)
}

// route a plan from held to owed, nil when no trader can carry it
func (p *planner) route(ctx context.Context, markets map[uint64]*core.Market, held *core.Market, owedID uint64, amount decimal.Decimal) *core.Plan {
	if !held.Isolated {
		venue := p.bestVenue(ctx, held.ID, owedID, amount)
		if venue == "" {
			return nil
		}

		return &core.Plan{
			MarketIDsPath:  routes.Routes{held.ID, owedID},
			AmountWeisPath: zeros(2),
			TraderParams:   []core.TraderParam{{Type: core.TraderTypeExternalLiquidity, Trader: venue}},
		}
	}

	leg, ok := p.traders.Leg(held.Unwrapper)
	if !ok || leg.Mode() != core.LegModeSynchronous {
		return nil
	}

	unwrap := core.TraderParam{Type: core.TraderTypeIsolationModeUnwrapper, Trader: leg.Name()}
	if leg.IsValidCounterMarket(owedID) {
		return &core.Plan{
			MarketIDsPath:  routes.Routes{held.ID, owedID},
			AmountWeisPath: zeros(2),
			TraderParams:   []core.TraderParam{unwrap},
		}
	}

	for _, counter := range sortedIDs(markets) {
		if !leg.IsValidCounterMarket(counter) || markets[counter].Isolated {
			continue
		}

		out, err := leg.GetExchangeCost(ctx, held.ID, counter, amount, nil)
		if err != nil {
			continue
		}

		if venue := p.bestVenue(ctx, counter, owedID, out); venue != "" {
			return &core.Plan{
				MarketIDsPath:  routes.Routes{held.ID, counter, owedID},
				AmountWeisPath: zeros(3),
				TraderParams:   []core.TraderParam{unwrap, {Type: core.TraderTypeExternalLiquidity, Trader: venue}},
			}
		}
	}

	return nil
}

func (p *planner) bestVenue(ctx context.Context, in, out uint64, amount decimal.Decimal) string {
	var (
		name string
		best = decimal.Zero
	)

	for _, v := range p.traders.Venues() {
		quote, err := v.Quote(ctx, in, out, amount, nil)
		if err != nil {
			continue
		}

		if name == "" || quote.GreaterThan(best) {
			name, best = v.Name(), quote
		}
	}

	return name
}

// executedPlans settle a frozen account through its executed retryable withdrawals
func (p *planner) executedPlans(ctx context.Context, liquid core.AccountID, actions []*core.AsyncAction, expiry *time.Time) []*core.Plan {
	balances, err := p.ledger.Balances(ctx, liquid)
	if err != nil {
		return nil
	}

	owedID, err := p.owed(ctx, liquid, balances, expiry)
	if err != nil || owedID == 0 {
		return nil
	}

	var plans []*core.Plan
	for _, action := range actions {
		if action.Type != core.AsyncActionWithdrawal || action.Status != core.AsyncActionExecuted || !action.Retryable {
			continue
		}

		market, err := p.markets.Find(ctx, action.InputMarketID)
		if err != nil || !market.AllowsDebt(owedID) {
			continue
		}

		unwrap := core.TraderParam{
			Type:      core.TraderTypeIsolationModeUnwrapper,
			Trader:    market.Unwrapper,
			TradeData: tradedata.EncodeUnwrapper(tradedata.Unwrapper{Keys: []string{action.Key}}),
		}

		if action.OutputMarketID == owedID {
			plans = append(plans, &core.Plan{
				MarketIDsPath:  routes.Routes{action.InputMarketID, owedID},
				AmountWeisPath: zeros(2),
				TraderParams:   []core.TraderParam{unwrap},
			})
			continue
		}

		if venue := p.bestVenue(ctx, action.OutputMarketID, owedID, action.OutputAmount); venue != "" {
			plans = append(plans, &core.Plan{
				MarketIDsPath:  routes.Routes{action.InputMarketID, action.OutputMarketID, owedID},
				AmountWeisPath: zeros(3),
				TraderParams:   []core.TraderParam{unwrap, {Type: core.TraderTypeExternalLiquidity, Trader: venue}},
			})
		}
	}

	return plans
}

// prepare the liquidation withdrawal of the largest async isolated collateral
func (p *planner) prepare(ctx context.Context, liquid core.AccountID, expiry *time.Time, actions []*core.AsyncAction) (*core.PrepareLiquidationRequest, error) {
	balances, err := p.ledger.Balances(ctx, liquid)
	if err != nil {
		return nil, err
	}

	owedID, err := p.owed(ctx, liquid, balances, expiry)
	if err != nil || owedID == 0 {
		return nil, err
	}

	for _, heldID := range p.heldByValue(ctx, balances) {
		market, err := p.markets.Find(ctx, heldID)
		if err != nil {
			return nil, err
		}

		if !market.Isolated || !market.Async || !market.AllowsDebt(owedID) {
			continue
		}

		leg, ok := p.traders.Leg(market.Unwrapper)
		if !ok {
			continue
		}

		amount := balances.Get(heldID)
		for _, a := range actions {
			if a.Type == core.AsyncActionDeposit && a.OutputMarketID == heldID {
				amount = amount.Sub(a.MinOutputAmount)
			}
		}

		if !amount.IsPositive() {
			continue
		}

		output := owedID
		if !leg.IsValidCounterMarket(output) {
			if output = p.counter(ctx, leg, owedID); output == 0 {
				continue
			}
		}

		quote, err := leg.GetExchangeCost(ctx, heldID, output, amount, nil)
		if err != nil {
			continue
		}

		min := quote.Mul(decimal.New(1, 0).Sub(p.cfg.Slippage)).Floor()
		if min.IsNegative() {
			min = decimal.Zero
		}

		return &core.PrepareLiquidationRequest{
			Liquid:         liquid,
			InputMarketID:  heldID,
			InputAmount:    amount,
			OutputMarketID: output,
			OwedMarketID:   owedID,
			Expiry:         expiry,
			TradeData:      tradedata.EncodeUnwrapper(tradedata.Unwrapper{MinOutput: min}),
		}, nil
	}

	return nil, nil
}

// counter a liquid output market of leg a venue can trade into owed
func (p *planner) counter(ctx context.Context, leg core.ConversionLeg, owedID uint64) uint64 {
	markets, err := p.markets.AllAsMap(ctx)
	if err != nil {
		return 0
	}

	for _, id := range sortedIDs(markets) {
		if !leg.IsValidCounterMarket(id) || markets[id].Isolated {
			continue
		}

		if p.bestVenue(ctx, id, owedID, decimal.New(1, 0)) != "" {
			return id
		}
	}

	return 0
}

func sortedIDs(markets map[uint64]*core.Market) []uint64 {
	ids := make([]uint64, 0, len(markets))
	for id := range markets {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func zeros(n int) []decimal.Decimal {
	amounts := make([]decimal.Decimal, n)
	for i := range amounts {
		amounts[i] = decimal.Zero
	}

	return amounts
}
