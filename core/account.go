package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountID a margin sub account, identified by owner and number
type AccountID struct {
	Owner  string `json:"owner"`
	Number uint64 `json:"number"`
}

func (a AccountID) String() string {
	return fmt.Sprintf("%s:%d", a.Owner, a.Number)
}

// IsZero no owner
func (a AccountID) IsZero() bool {
	return a.Owner == ""
}

// Balances signed wei per market id, positive = supplied, negative = borrowed
type Balances map[uint64]decimal.Decimal

// Get balance of market, zero when absent
func (b Balances) Get(marketID uint64) decimal.Decimal {
	if v, ok := b[marketID]; ok {
		return v
	}

	return decimal.Zero
}

// MarketIDs sorted market ids with non zero balance
func (b Balances) MarketIDs() []uint64 {
	ids := make([]uint64, 0, len(b))
	for id, v := range b {
		if !v.IsZero() {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone deep copy
func (b Balances) Clone() Balances {
	c := make(Balances, len(b))
	for id, v := range b {
		c[id] = v
	}
	return c
}

// AccountValues collateralization values of an account, in numeraire * 1e36
type AccountValues struct {
	SupplyValue decimal.Decimal `json:"supply_value"`
	BorrowValue decimal.Decimal `json:"borrow_value"`
}

// IAccountService collateralization evaluator
type IAccountService interface {
	// Evaluate supply & borrow value of the balances
	Evaluate(ctx context.Context, balances Balances) (*AccountValues, error)
	// IsLiquidatable supply value below borrow value * min collateralization
	IsLiquidatable(ctx context.Context, balances Balances) (bool, error)
	// IsCollateralized the opposite of IsLiquidatable, used by owner operations
	IsCollateralized(ctx context.Context, balances Balances) (bool, error)
	// IsExpired expiry tag matured at t
	IsExpired(ctx context.Context, account AccountID, marketID uint64, t time.Time) (bool, error)
}
