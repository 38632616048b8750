package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerTx balance mutations inside one atomic ledger call
type LedgerTx interface {
	Balance(ctx context.Context, account AccountID, marketID uint64) (decimal.Decimal, error)
	Balances(ctx context.Context, account AccountID) (Balances, error)
	// Add signed delta to the balance
	Add(ctx context.Context, account AccountID, marketID uint64, delta decimal.Decimal) error
	// Transfer amount of market from -> to
	Transfer(ctx context.Context, from, to AccountID, marketID uint64, amount decimal.Decimal) error
	// OnCommit runs fn after the tx committed, never after a rollback
	OnCommit(fn func())
}

// Ledger single writer, all-or-nothing balance store
type Ledger interface {
	Balances(ctx context.Context, account AccountID) (Balances, error)
	Accounts(ctx context.Context) ([]AccountID, error)
	// Tx runs fn atomically; any error returned by fn reverts every mutation made through tx
	Tx(ctx context.Context, fn func(tx LedgerTx) error) error
}
