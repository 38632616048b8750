package market

import (
	"context"
	"errors"
	"testing"

	"margin/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := Memory(&core.Market{ID: 2, AssetID: "usdc", Symbol: "USDC", Decimals: 6})

	require.Nil(t, s.Save(ctx, &core.Market{ID: 1, AssetID: "x", Symbol: "X", Decimals: 18, Isolated: true, AllowedDebtMarkets: []uint64{2}}))

	m, err := s.Find(ctx, 1)
	require.Nil(t, err)
	assert.True(t, m.AllowsDebt(2))
	assert.False(t, m.AllowsDebt(3))

	m, err = s.FindByAsset(ctx, "usdc")
	require.Nil(t, err)
	assert.Equal(t, uint64(2), m.ID)

	_, err = s.Find(ctx, 9)
	assert.True(t, errors.Is(err, core.ErrMarketNotFound))

	all, err := s.All(ctx)
	require.Nil(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].ID)

	m.Symbol = "USDC.e"
	require.Nil(t, s.Save(ctx, m))
	m, _ = s.Find(ctx, 2)
	assert.Equal(t, int64(1), m.Version)
	assert.Equal(t, "USDC.e", m.Symbol)
}
