package core

import (
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config margin engine config
type Config struct {
	App        App          `json:"app"`
	DB         db.Config    `json:"db"`
	Risk       Risk         `json:"risk"`
	Markets    []MarketSpec `json:"markets"`
	Legs       []LegSpec    `json:"legs"`
	Venues     []VenueSpec  `json:"venues"`
	PriceFeed  PriceFeed    `json:"price_feed"`
	Redemption Redemption   `json:"redemption"`
	Liquidator Liquidator   `json:"liquidator"`
	Log        Log          `json:"log"`
	Admins     []string     `json:"admins"`
}

// IsAdmin check if the user is admin
func (c *Config) IsAdmin(userID string) bool {
	if len(c.Admins) <= 0 {
		return false
	}

	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// App app config
type App struct {
	Name string `json:"name"`
	// identity of the settlement orchestrator, the only caller legs accept
	OrchestratorID string `json:"orchestrator_id"`
	Location       string `json:"location"`
}

// Risk risk parameters
type Risk struct {
	// e.g. 115/100
	MinCollateralization string `json:"min_collateralization"`
	// e.g. 105/100
	LiquidationSpread string        `json:"liquidation_spread"`
	ExpiryRampTime    time.Duration `json:"expiry_ramp_time"`
	PriceTTL          time.Duration `json:"price_ttl"`
}

// MarketSpec market declared by config
type MarketSpec struct {
	ID                 uint64   `json:"id"`
	AssetID            string   `json:"asset_id"`
	Symbol             string   `json:"symbol"`
	Decimals           int32    `json:"decimals"`
	Isolated           bool     `json:"isolated"`
	Async              bool     `json:"async"`
	AllowedDebtMarkets []uint64 `json:"allowed_debt_markets"`
	Unwrapper          string   `json:"unwrapper"`
	Wrapper            string   `json:"wrapper"`
	MarginPremium      string   `json:"margin_premium"`
	SpreadPremium      string   `json:"spread_premium"`
	// unit price in numeraire, e.g. "1.0219"
	Price string `json:"price"`
	// restricted liquidator whitelist, empty means unrestricted
	Liquidators []string `json:"liquidators"`
}

// LegSpec conversion leg declared by config
type LegSpec struct {
	Name           string   `json:"name"`
	Mode           string   `json:"mode"`
	Direction      string   `json:"direction"`
	IsolatedMarket uint64   `json:"isolated_market"`
	CounterMarkets []uint64 `json:"counter_markets"`
	// retention fee, e.g. 1/1000
	Fee string `json:"fee"`
}

// VenueSpec external venue declared by config
type VenueSpec struct {
	Name string `json:"name"`
	// oracle or http
	Kind     string          `json:"kind"`
	Endpoint string          `json:"endpoint"`
	Slippage decimal.Decimal `json:"slippage"`
}

// PriceFeed price feed worker, markets without a feed price fall back to MarketSpec.Price
type PriceFeed struct {
	// http ticker endpoint, empty uses the configured prices only
	Endpoint string `json:"endpoint"`
	Spec     string `json:"spec"`
}

// Redemption simulated redemption system
type Redemption struct {
	Delay        time.Duration `json:"delay"`
	CallbackURL  string        `json:"callback_url"`
	PollInterval time.Duration `json:"poll_interval"`
}

// Liquidator keeper config
type Liquidator struct {
	Owner    string        `json:"owner"`
	Number   uint64        `json:"number"`
	Interval time.Duration `json:"interval"`
	// min output tolerance of candidate plans
	Slippage decimal.Decimal `json:"slippage"`
}

// Account the keeper's solid account
func (l Liquidator) Account() AccountID {
	return AccountID{Owner: l.Owner, Number: l.Number}
}

// Log logging config
type Log struct {
	Level string `json:"level"`
	// rotated log file, stdout if empty
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}
