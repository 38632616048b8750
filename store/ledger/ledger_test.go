package ledger

import (
	"context"
	"testing"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSqlite(t *testing.T) *db.DB {
	d := db.MustOpen(db.SqliteInMemory())
	// one connection, every connection of :memory: is its own database
	d.Update().DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = d.Close() })

	require.Nil(t, db.Migrate(d))
	return d
}

func TestGormLedgerStaleBalance(t *testing.T) {
	ctx := context.Background()
	d := openSqlite(t)
	l := New(d)
	alice := core.AccountID{Owner: "alice", Number: 1}

	require.Nil(t, l.Tx(ctx, func(tx core.LedgerTx) error {
		return tx.Add(ctx, alice, 1, decimal.NewFromInt(100))
	}))

	require.Nil(t, l.Tx(ctx, func(tx core.LedgerTx) error {
		return tx.Add(ctx, alice, 1, decimal.NewFromInt(-30))
	}))

	tx := &gormTx{db: d}
	stale, err := tx.find(alice, 1)
	require.Nil(t, err)
	assert.Equal(t, int64(1), stale.Version)

	// a concurrent writer moves the row past the version read above
	require.Nil(t, tx.Add(ctx, alice, 1, decimal.NewFromInt(5)))

	stale.Amount = stale.Amount.Add(decimal.NewFromInt(1000))
	assert.Equal(t, db.ErrOptimisticLock, tx.update(stale))

	balances, err := l.Balances(ctx, alice)
	require.Nil(t, err)
	assert.Equal(t, "75", balances.Get(1).String())
}

func TestGormLedgerTxRollsBackOnStaleWrite(t *testing.T) {
	ctx := context.Background()
	d := openSqlite(t)
	l := New(d)
	alice := core.AccountID{Owner: "alice", Number: 1}
	bob := core.AccountID{Owner: "bob", Number: 1}

	require.Nil(t, l.Tx(ctx, func(tx core.LedgerTx) error {
		return tx.Add(ctx, alice, 1, decimal.NewFromInt(100))
	}))

	stale, err := (&gormTx{db: d}).find(alice, 1)
	require.Nil(t, err)
	require.Nil(t, l.Tx(ctx, func(tx core.LedgerTx) error {
		return tx.Add(ctx, alice, 1, decimal.NewFromInt(1))
	}))

	committed := false
	err = l.Tx(ctx, func(tx core.LedgerTx) error {
		tx.OnCommit(func() { committed = true })
		if err := tx.Add(ctx, bob, 1, decimal.NewFromInt(40)); err != nil {
			return err
		}

		stale.Amount = stale.Amount.Sub(decimal.NewFromInt(40))
		return tx.(*gormTx).update(stale)
	})
	assert.Equal(t, db.ErrOptimisticLock, err)
	assert.False(t, committed)

	snapshot := map[core.AccountID]string{}
	for _, account := range []core.AccountID{alice, bob} {
		balances, err := l.Balances(ctx, account)
		require.Nil(t, err)
		snapshot[account] = balances.Get(1).String()
	}

	assert.Equal(t, map[core.AccountID]string{alice: "101", bob: "0"}, snapshot)
}
