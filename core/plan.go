package core

import (
	"context"
	"time"

	"margin/pkg/routes"

	"github.com/shopspring/decimal"
)

// TraderType kind of trader executing a plan hop
type TraderType int

const (
	// TraderTypeExternalLiquidity external venue, never touches isolated markets
	TraderTypeExternalLiquidity TraderType = iota
	// TraderTypeIsolationModeUnwrapper conversion leg, isolated -> liquid
	TraderTypeIsolationModeUnwrapper
	// TraderTypeIsolationModeWrapper conversion leg, liquid -> isolated
	TraderTypeIsolationModeWrapper
)

func (t TraderType) String() string {
	switch t {
	case TraderTypeExternalLiquidity:
		return "external_liquidity"
	case TraderTypeIsolationModeUnwrapper:
		return "isolation_mode_unwrapper"
	case TraderTypeIsolationModeWrapper:
		return "isolation_mode_wrapper"
	default:
		return "unknown"
	}
}

// TraderParam the trader of one hop
type TraderParam struct {
	Type TraderType `json:"type"`
	// leg or venue name
	Trader string `json:"trader"`
	// opaque to the orchestrator
	TradeData []byte `json:"trade_data,omitempty"`
}

// Plan ordered hops from held collateral to the owed market
type Plan struct {
	MarketIDsPath routes.Routes `json:"market_ids_path"`
	// [0] held input (zero = max reward), [i>0] min output of hop i-1
	AmountWeisPath []decimal.Decimal `json:"amount_weis_path"`
	TraderParams   []TraderParam     `json:"trader_params"`
}

// HeldMarketID first market of the path
func (p *Plan) HeldMarketID() uint64 {
	return p.MarketIDsPath.First()
}

// OwedMarketID last market of the path
func (p *Plan) OwedMarketID() uint64 {
	return p.MarketIDsPath.Last()
}

// Hops number of trades
func (p *Plan) Hops() int {
	return len(p.TraderParams)
}

// LiquidationState orchestrator state
type LiquidationState int

const (
	LiquidationStateValidating LiquidationState = iota
	LiquidationStatePlanning
	LiquidationStateExecuting
	LiquidationStateSettled
	LiquidationStateReverted
)

func (s LiquidationState) String() string {
	switch s {
	case LiquidationStateValidating:
		return "validating"
	case LiquidationStatePlanning:
		return "planning"
	case LiquidationStateExecuting:
		return "executing"
	case LiquidationStateSettled:
		return "settled"
	case LiquidationStateReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// LiquidateRequest one liquidation attempt
type LiquidateRequest struct {
	// the liquidator's account, receives the reward
	Solid AccountID `json:"solid"`
	// the account being liquidated
	Liquid AccountID `json:"liquid"`
	Plan   Plan      `json:"plan"`
	// nil: liquidation by collateralization, else expiry liquidation of the owed market
	Expiry *time.Time `json:"expiry,omitempty"`
	// trace id of the attempt, generated if empty
	TraceID string `json:"trace_id,omitempty"`
}

// HopResult realized amounts of one hop
type HopResult struct {
	InputMarketID  uint64          `json:"input_market_id"`
	OutputMarketID uint64          `json:"output_market_id"`
	Trader         string          `json:"trader"`
	InputAmount    decimal.Decimal `json:"input_amount"`
	OutputAmount   decimal.Decimal `json:"output_amount"`
}

// LiquidationQuote reward computation of a liquidation, without execution
type LiquidationQuote struct {
	HeldMarketID uint64 `json:"held_market_id"`
	OwedMarketID uint64 `json:"owed_market_id"`
	// debt moved from liquid to solid
	OwedAmount decimal.Decimal `json:"owed_amount"`
	// collateral moved from liquid to solid, reward included
	HeldAmount decimal.Decimal `json:"held_amount"`
	HeldPrice  decimal.Decimal `json:"held_price"`
	// owed price with spread applied
	OwedPriceAdj decimal.Decimal `json:"owed_price_adj"`
	// reward capped at the held balance
	CloseOut bool `json:"close_out"`
	// the whole debt of the owed market is repaid
	FullRepay bool `json:"full_repay"`
}

// LiquidationResult outcome of a liquidation attempt
type LiquidationResult struct {
	TraceID string           `json:"trace_id"`
	State   LiquidationState `json:"state"`
	LiquidationQuote
	Hops         []*HopResult    `json:"hops"`
	OutputAmount decimal.Decimal `json:"output_amount"`
}

// ILiquidationService the liquidation orchestrator
type ILiquidationService interface {
	// Preview validates & computes the reward of req without executing
	Preview(ctx context.Context, req *LiquidateRequest) (*LiquidationQuote, error)
	// Liquidate executes req atomically; the result is returned even when reverted
	Liquidate(ctx context.Context, req *LiquidateRequest) (*LiquidationResult, error)
}
