package asyncaction

import (
	"context"
	"testing"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := Memory()
	account := core.AccountID{Owner: "alice", Number: 1}

	deposit := &core.AsyncAction{Key: "d", Type: core.AsyncActionDeposit, Owner: account.Owner, Number: account.Number}
	require.Nil(t, s.Create(ctx, deposit))

	actions, err := s.FindByAccount(ctx, account)
	require.Nil(t, err)
	assert.Equal(t, core.FrozenPendingDeposit, core.FreezeStateOf(actions))

	withdrawal := &core.AsyncAction{Key: "w", Type: core.AsyncActionWithdrawal, Owner: account.Owner, Number: account.Number, InputAmount: decimal.NewFromInt(10)}
	require.Nil(t, s.Create(ctx, withdrawal))

	actions, err = s.FindByAccount(ctx, account)
	require.Nil(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, core.FrozenPendingWithdrawal, core.FreezeStateOf(actions), "withdrawal wins over deposit")

	withdrawal.Status = core.AsyncActionExecuted
	require.Nil(t, s.Update(ctx, withdrawal))
	executed, err := s.List(ctx, core.AsyncActionExecuted, 10)
	require.Nil(t, err)
	require.Len(t, executed, 1)
	assert.Equal(t, "w", executed[0].Key)
	assert.Equal(t, int64(1), executed[0].Version)

	require.Nil(t, s.Delete(ctx, "w"))
	require.Nil(t, s.Delete(ctx, "d"))
	actions, _ = s.FindByAccount(ctx, account)
	assert.Equal(t, core.Unfrozen, core.FreezeStateOf(actions))

	missing, err := s.Find(ctx, "w")
	assert.Nil(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreStaleUpdate(t *testing.T) {
	ctx := context.Background()
	s := Memory()

	require.Nil(t, s.Create(ctx, &core.AsyncAction{Key: "w", Type: core.AsyncActionWithdrawal, Owner: "alice", Number: 1, InputAmount: decimal.NewFromInt(10)}))

	first, err := s.Find(ctx, "w")
	require.Nil(t, err)
	second, err := s.Find(ctx, "w")
	require.Nil(t, err)

	first.InputAmount = decimal.NewFromInt(4)
	require.Nil(t, s.Update(ctx, first))

	second.InputAmount = decimal.NewFromInt(6)
	assert.Equal(t, db.ErrOptimisticLock, s.Update(ctx, second))

	stored, err := s.Find(ctx, "w")
	require.Nil(t, err)
	assert.Equal(t, "4", stored.InputAmount.String())
	assert.Equal(t, int64(1), stored.Version)

	assert.Equal(t, db.ErrOptimisticLock, s.Update(ctx, &core.AsyncAction{Key: "missing"}))
}
