package transaction

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"margin/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := Memory()
	account := core.AccountID{Owner: "alice", Number: 1}

	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeyPath, "1>2")
	tx := core.BuildTransaction("t1", core.TransactionActionLiquidate, account, 2, decimal.NewFromInt(174), core.ErrInsufficientOutput, extra)
	require.Nil(t, s.Create(ctx, tx))
	assert.Equal(t, core.TransactionStatusAbort, tx.Status)

	dup := core.BuildTransaction("t1", core.TransactionActionLiquidate, account, 2, decimal.Zero, nil, nil)
	require.Nil(t, s.Create(ctx, dup))
	assert.Equal(t, tx.ID, dup.ID, "trace id is unique")

	found, err := s.FindByTraceID(ctx, "t1")
	require.Nil(t, err)
	require.NotNil(t, found)

	var data map[string]interface{}
	require.Nil(t, json.Unmarshal(found.Data, &data))
	assert.Equal(t, "1>2", data[core.TransactionKeyPath])
	assert.Equal(t, float64(core.ErrInsufficientOutput), data[core.TransactionKeyErrorCode])

	list, err := s.ListByAccount(ctx, account, 10)
	require.Nil(t, err)
	assert.Len(t, list, 1)

	list, err = s.List(ctx, time.Now().Add(time.Hour), 10)
	require.Nil(t, err)
	assert.Empty(t, list)
}
