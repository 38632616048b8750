package views

import (
	"margin/core"

	"github.com/shopspring/decimal"
)

// Balance balance view of one market
type Balance struct {
	MarketID uint64          `json:"market_id"`
	Symbol   string          `json:"symbol"`
	Wei      decimal.Decimal `json:"wei"`
	// Wei in whole tokens
	Amount decimal.Decimal `json:"amount"`
}

// Account account view
type Account struct {
	core.AccountID
	Balances     []*Balance          `json:"balances"`
	SupplyValue  decimal.Decimal     `json:"supply_value"`
	BorrowValue  decimal.Decimal     `json:"borrow_value"`
	Liquidatable bool                `json:"liquidatable"`
	FreezeState  string              `json:"freeze_state"`
	Actions      []*core.AsyncAction `json:"actions"`
	Expiries     []*core.Expiry      `json:"expiries,omitempty"`
}
