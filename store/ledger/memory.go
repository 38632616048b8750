package ledger

import (
	"context"
	"sort"
	"sync"

	"margin/core"

	"github.com/shopspring/decimal"
)

type memoryLedger struct {
	mu       sync.Mutex
	balances map[core.AccountID]core.Balances
}

// Memory in process ledger, Tx holds an exclusive lock for its duration
func Memory() core.Ledger {
	return &memoryLedger{
		balances: make(map[core.AccountID]core.Balances),
	}
}

func (l *memoryLedger) Balances(ctx context.Context, account core.AccountID) (core.Balances, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[account].Clone(), nil
}

func (l *memoryLedger) Accounts(ctx context.Context) ([]core.AccountID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]core.AccountID, 0, len(l.balances))
	for account, balances := range l.balances {
		if len(balances.MarketIDs()) > 0 {
			accounts = append(accounts, account)
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (l *memoryLedger) Tx(ctx context.Context, fn func(tx core.LedgerTx) error) error {
	l.mu.Lock()
	tx := &memoryTx{
		base:  l.balances,
		dirty: make(map[core.AccountID]core.Balances),
	}

	if err := fn(tx); err != nil {
		l.mu.Unlock()
		return err
	}

	for account, balances := range tx.dirty {
		l.balances[account] = balances
	}
	l.mu.Unlock()

	for _, hook := range tx.hooks {
		hook()
	}

	return nil
}

type memoryTx struct {
	base  map[core.AccountID]core.Balances
	dirty map[core.AccountID]core.Balances
	hooks []func()
}

func (tx *memoryTx) load(account core.AccountID) core.Balances {
	if b, ok := tx.dirty[account]; ok {
		return b
	}

	b := tx.base[account].Clone()
	tx.dirty[account] = b
	return b
}

func (tx *memoryTx) Balance(ctx context.Context, account core.AccountID, marketID uint64) (decimal.Decimal, error) {
	return tx.load(account).Get(marketID), nil
}

func (tx *memoryTx) Balances(ctx context.Context, account core.AccountID) (core.Balances, error) {
	return tx.load(account).Clone(), nil
}

func (tx *memoryTx) Add(ctx context.Context, account core.AccountID, marketID uint64, delta decimal.Decimal) error {
	if err := validDelta(account, delta); err != nil {
		return err
	}

	b := tx.load(account)
	b[marketID] = b.Get(marketID).Add(delta)
	return nil
}

func (tx *memoryTx) Transfer(ctx context.Context, from, to core.AccountID, marketID uint64, amount decimal.Decimal) error {
	if err := tx.Add(ctx, from, marketID, amount.Neg()); err != nil {
		return err
	}

	return tx.Add(ctx, to, marketID, amount)
}

func (tx *memoryTx) OnCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}

func sortAccounts(accounts []core.AccountID) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Owner != accounts[j].Owner {
			return accounts[i].Owner < accounts[j].Owner
		}
		return accounts[i].Number < accounts[j].Number
	})
}
