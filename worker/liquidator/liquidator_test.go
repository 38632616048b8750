package liquidator_test

import (
	"context"
	"testing"
	"time"

	"margin/internal/fixture"
	"margin/worker/liquidator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeeper(env *fixture.Env) *liquidator.Liquidator {
	return liquidator.New(
		liquidator.Config{Solid: fixture.Keeper, Now: env.Now},
		env.Planner, env.Liquidation, env.Freezable, nil,
	)
}

func TestRoundLiquidates(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("200", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-174", 6))
	env.Fund(fixture.Keeper, fixture.MarketUSDC, fixture.Wei("1", 6))

	w := newKeeper(env)

	done, err := w.Round(ctx)
	assert.NotNil(t, err, "no candidate")
	assert.Equal(t, 0, done)

	env.SetPrice(fixture.MarketX, "0.99")
	done, err = w.Round(ctx)
	require.Nil(t, err)
	assert.Equal(t, 1, done)

	assert.True(t, env.Balance(fixture.Alice, fixture.MarketUSDC).IsZero())
	assert.True(t, env.Balance(fixture.Keeper, fixture.MarketUSDC).GreaterThan(fixture.Wei("1", 6)))

	done, err = w.Round(ctx)
	assert.NotNil(t, err)
	assert.Equal(t, 0, done)
}

func TestRoundPreparesAsyncCollateral(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketGX, fixture.Wei("100", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-180", 6))

	w := newKeeper(env)

	done, err := w.Round(ctx)
	require.Nil(t, err)
	assert.Equal(t, 1, done)
	require.Len(t, env.Redemption.Pending(), 1)

	// frozen until the redemption executes
	done, err = w.Round(ctx)
	assert.NotNil(t, err)
	assert.Equal(t, 0, done)

	env.Advance(time.Minute)
	assert.Equal(t, 1, env.Deliver(ctx))

	assert.True(t, env.Balance(fixture.Alice, fixture.MarketGX).IsZero())
	assert.False(t, env.Balance(fixture.Alice, fixture.MarketUSDC).IsNegative())
	assert.True(t, env.Balance(fixture.Keeper, fixture.MarketUSDC).IsPositive())
}
