package priceoracle

import (
	"context"
	"errors"
	"strconv"

	"margin/core"
	"margin/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// ErrNoTicker no source priced the market
var ErrNoTicker = errors.New("priceoracle: no ticker")

type staticTicker struct {
	prices map[uint64]decimal.Decimal
}

// Static fixed unit prices by market id
func Static(prices map[uint64]decimal.Decimal) core.IPriceTicker {
	return &staticTicker{prices: prices}
}

func (t *staticTicker) PullPrice(ctx context.Context, market *core.Market) (decimal.Decimal, error) {
	if p, ok := t.prices[market.ID]; ok && p.IsPositive() {
		return p, nil
	}

	return decimal.Zero, ErrNoTicker
}

type httpTicker struct {
	endpoint string
}

// HTTP unit prices from GET endpoint?asset=&symbol=, answering {"price": "1.02"}
func HTTP(endpoint string) core.IPriceTicker {
	return &httpTicker{endpoint: endpoint}
}

func (t *httpTicker) PullPrice(ctx context.Context, market *core.Market) (decimal.Decimal, error) {
	var resp struct {
		Price decimal.Decimal `json:"price"`
	}

	query := map[string]string{
		"asset":  market.AssetID,
		"symbol": market.Symbol,
		"market": strconv.FormatUint(market.ID, 10),
	}

	if err := resthttp.Get(ctx, t.endpoint, query, &resp); err != nil {
		return decimal.Zero, err
	}

	if !resp.Price.IsPositive() {
		return decimal.Zero, ErrNoTicker
	}

	return resp.Price, nil
}

type fallbackTicker struct {
	tickers []core.IPriceTicker
}

// Fallback first ticker answering a positive price
func Fallback(tickers ...core.IPriceTicker) core.IPriceTicker {
	return &fallbackTicker{tickers: tickers}
}

func (t *fallbackTicker) PullPrice(ctx context.Context, market *core.Market) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("market", market.Symbol)

	for _, ticker := range t.tickers {
		p, err := ticker.PullPrice(ctx, market)
		if err == nil {
			return p, nil
		}

		log.WithError(err).Debugln("priceoracle: ticker skipped")
	}

	return decimal.Zero, ErrNoTicker
}
