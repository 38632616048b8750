package trader

import (
	"context"
	"sync"

	"margin/core"
	"margin/pkg/margin"

	"github.com/shopspring/decimal"
)

type oracleRates struct {
	oracle core.IPriceOracle
}

// OracleRates share rates from oracle prices, one isolated wei is worth its value in counter wei
func OracleRates(oracle core.IPriceOracle) core.IShareRateSource {
	return &oracleRates{oracle: oracle}
}

func (r *oracleRates) ShareRate(ctx context.Context, isolatedMarketID, counterMarketID uint64) (decimal.Decimal, decimal.Decimal, error) {
	isolated, err := r.oracle.GetPrice(ctx, isolatedMarketID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	counter, err := r.oracle.GetPrice(ctx, counterMarketID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return isolated.Value, counter.Value, nil
}

type pairKey struct {
	isolated, counter uint64
}

type rate struct {
	assets, shares decimal.Decimal
}

// StaticRates settable share rates
type StaticRates struct {
	mu    sync.RWMutex
	rates map[pairKey]rate
}

func NewStaticRates() *StaticRates {
	return &StaticRates{rates: make(map[pairKey]rate)}
}

// Set counter wei = isolated wei * assets / shares
func (r *StaticRates) Set(isolatedMarketID, counterMarketID uint64, assets, shares decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rates[pairKey{isolatedMarketID, counterMarketID}] = rate{assets: assets, shares: shares}
}

func (r *StaticRates) ShareRate(ctx context.Context, isolatedMarketID, counterMarketID uint64) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.rates[pairKey{isolatedMarketID, counterMarketID}]
	if !ok {
		return decimal.Zero, decimal.Zero, &margin.RequireError{Code: core.ErrInvalidMarketPair, Reason: "rate/pair-exists"}
	}

	return v.assets, v.shares, nil
}
