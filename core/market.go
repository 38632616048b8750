package core

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"margin/pkg/routes"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Ratio integer fraction, numerator / denominator
type Ratio struct {
	Numerator   decimal.Decimal `json:"numerator"`
	Denominator decimal.Decimal `json:"denominator"`
}

// NewRatio ratio from ints
func NewRatio(numerator, denominator int64) Ratio {
	return Ratio{
		Numerator:   decimal.NewFromInt(numerator),
		Denominator: decimal.NewFromInt(denominator),
	}
}

// OneRatio 1/1
func OneRatio() Ratio {
	return NewRatio(1, 1)
}

// IsValid denominator positive and numerator not negative
func (r Ratio) IsValid() bool {
	return r.Denominator.IsPositive() && !r.Numerator.IsNegative()
}

// OrOne r if set, else 1/1
func (r Ratio) OrOne() Ratio {
	if r.Denominator.IsZero() {
		return OneRatio()
	}
	return r
}

func (r Ratio) String() string {
	return r.Numerator.String() + "/" + r.Denominator.String()
}

// ParseRatio parse "105/100"
func ParseRatio(v string) (Ratio, error) {
	parts := strings.Split(strings.TrimSpace(v), "/")
	if len(parts) != 2 {
		return Ratio{}, errors.New("ratio must be numerator/denominator")
	}

	num, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return Ratio{}, err
	}

	den, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return Ratio{}, err
	}

	r := Ratio{Numerator: num, Denominator: den}
	if !r.IsValid() {
		return Ratio{}, errors.New("invalid ratio " + v)
	}

	return r, nil
}

// sql

func (r Ratio) Value() (driver.Value, error) {
	return r.OrOne().String(), nil
}

func (r *Ratio) Scan(src interface{}) error {
	s := cast.ToString(src)
	if s == "" {
		*r = OneRatio()
		return nil
	}

	v, err := ParseRatio(s)
	if err != nil {
		return err
	}

	*r = v
	return nil
}

// Market a margin market, one per asset
type Market struct {
	ID       uint64 `sql:"PRIMARY_KEY" json:"id"`
	AssetID  string `sql:"size:36;unique_index:market_asset_idx" json:"asset_id"`
	Symbol   string `sql:"size:20" json:"symbol"`
	Decimals int32  `json:"decimals"`
	// isolated markets only trade through their bound conversion legs
	Isolated bool `json:"isolated"`
	// redemption of the isolated token happens through an async system
	Async bool `json:"async"`
	// allowed debt markets of an isolated market, empty = any
	AllowedDebtMarkets routes.Routes `sql:"type:varchar(512)" json:"allowed_debt_markets,omitempty"`
	// leg names
	Unwrapper string `sql:"size:64" json:"unwrapper,omitempty"`
	Wrapper   string `sql:"size:64" json:"wrapper,omitempty"`
	// >= 1, divides supply value & multiplies borrow value
	MarginPremium Ratio `sql:"type:varchar(128)" json:"margin_premium"`
	// >= 1, multiplies the liquidation spread of pairs with this market
	SpreadPremium Ratio     `sql:"type:varchar(128)" json:"spread_premium"`
	Version       int64     `sql:"default:0" json:"version"`
	CreatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// AllowsDebt whether the isolated market may be used as collateral for a debt in marketID
func (m *Market) AllowsDebt(marketID uint64) bool {
	if !m.Isolated || len(m.AllowedDebtMarkets) == 0 {
		return true
	}

	return m.AllowedDebtMarkets.Contains(marketID)
}

// IMarketStore market registry
type IMarketStore interface {
	Save(ctx context.Context, market *Market) error
	// Find returns ErrMarketNotFound if not exist
	Find(ctx context.Context, id uint64) (*Market, error)
	FindByAsset(ctx context.Context, assetID string) (*Market, error)
	All(ctx context.Context) ([]*Market, error)
	AllAsMap(ctx context.Context) (map[uint64]*Market, error)
}
