package expiry

import (
	"context"
	"testing"
	"time"

	"margin/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := Memory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	account := core.AccountID{Owner: "alice"}

	require.Nil(t, s.Set(ctx, &core.Expiry{Owner: "alice", MarketID: 2, ExpiresAt: now.Add(-time.Hour)}))
	require.Nil(t, s.Set(ctx, &core.Expiry{Owner: "bob", MarketID: 2, ExpiresAt: now.Add(time.Hour)}))

	e, err := s.Find(ctx, account, 2)
	require.Nil(t, err)
	require.NotNil(t, e)
	assert.Equal(t, account, e.Account())

	expired, err := s.ListExpired(ctx, now, 10)
	require.Nil(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "alice", expired[0].Owner)

	require.Nil(t, s.Delete(ctx, account, 2))
	e, err = s.Find(ctx, account, 2)
	assert.Nil(t, err)
	assert.Nil(t, e)
}
