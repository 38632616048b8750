package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Price numeraire value of one wei of a market, scaled by 1e36
type Price struct {
	MarketID   uint64          `sql:"PRIMARY_KEY" json:"market_id"`
	Value      decimal.Decimal `sql:"type:decimal(64,0)" json:"value"`
	ValidUntil time.Time       `json:"valid_until"`
	Version    int64           `sql:"default:0" json:"version,omitempty"`
	UpdatedAt  time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at,omitempty"`
}

// IsValidAt not stale at t and positive
func (p *Price) IsValidAt(t time.Time) bool {
	return p.Value.IsPositive() && !t.After(p.ValidUntil)
}

// IPriceFeed raw price source, no validity checks
type IPriceFeed interface {
	// Latest returns ErrPriceNotFound if not exist
	Latest(ctx context.Context, marketID uint64) (*Price, error)
}

// IPriceStore writable price feed
type IPriceStore interface {
	IPriceFeed
	Save(ctx context.Context, price *Price) error
}

// IPriceOracle validated prices; stale or missing prices are errors, never defaults
type IPriceOracle interface {
	GetPrice(ctx context.Context, marketID uint64) (*Price, error)
}

// IPriceTicker source of unit prices, one whole token in the numeraire
type IPriceTicker interface {
	PullPrice(ctx context.Context, market *Market) (decimal.Decimal, error)
}
