package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// LegMode how a conversion leg settles
type LegMode int

const (
	// LegModeSynchronous deterministic exchange executed in place
	LegModeSynchronous LegMode = iota
	// LegModeAsynchronous execution submits a request, completion arrives by callback
	LegModeAsynchronous
)

func (m LegMode) String() string {
	if m == LegModeAsynchronous {
		return "async"
	}
	return "sync"
}

// LegDirection unwrap or wrap
type LegDirection int

const (
	// LegDirectionUnwrap isolated -> liquid
	LegDirectionUnwrap LegDirection = iota
	// LegDirectionWrap liquid -> isolated
	LegDirectionWrap
)

func (d LegDirection) String() string {
	if d == LegDirectionWrap {
		return "wrap"
	}
	return "unwrap"
}

// ExchangeRequest one leg execution
type ExchangeRequest struct {
	// must be the settlement orchestrator
	Caller string `json:"caller"`
	// account receiving the output
	Solid AccountID `json:"solid"`
	// account being liquidated, used by async legs to match redemption requests
	Liquid         AccountID       `json:"liquid"`
	InputMarketID  uint64          `json:"input_market_id"`
	OutputMarketID uint64          `json:"output_market_id"`
	InputAmount    decimal.Decimal `json:"input_amount"`
	MinOutput      decimal.Decimal `json:"min_output"`
	TradeData      []byte          `json:"trade_data,omitempty"`
}

// ConversionLeg unwrapper or wrapper bound to one isolated market
type ConversionLeg interface {
	Name() string
	Mode() LegMode
	Direction() LegDirection
	// IsolatedMarket the bound isolated market
	IsolatedMarket() uint64
	// IsValidCounterMarket output market of an unwrapper / input market of a wrapper
	IsValidCounterMarket(marketID uint64) bool
	// GetExchangeCost quote, side effect free
	GetExchangeCost(ctx context.Context, inputMarketID, outputMarketID uint64, inputAmount decimal.Decimal, tradeData []byte) (decimal.Decimal, error)
	// Exchange executes the leg and returns the realized output
	Exchange(ctx context.Context, tx LedgerTx, req *ExchangeRequest) (decimal.Decimal, error)
}

// ExternalVenue external liquidity, routing data is opaque to the engine
type ExternalVenue interface {
	Name() string
	Quote(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error)
	Trade(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error)
}

// ITraderRegistry legs and venues by name
type ITraderRegistry interface {
	Leg(name string) (ConversionLeg, bool)
	Venue(name string) (ExternalVenue, bool)
	Legs() []ConversionLeg
	Venues() []ExternalVenue
}

// IShareRateSource conversion rate of isolated (vault) token wei into counter market wei
type IShareRateSource interface {
	// ShareRate counter wei = isolated wei * assets / shares
	ShareRate(ctx context.Context, isolatedMarketID, counterMarketID uint64) (assets, shares decimal.Decimal, err error)
}
