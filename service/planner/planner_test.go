package planner_test

import (
	"context"
	"testing"
	"time"

	"margin/core"
	"margin/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatesVenue(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("200", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-174", 6))
	env.Fund(fixture.Keeper, fixture.MarketUSDC, fixture.Wei("1", 6))

	candidates, err := env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	assert.Empty(t, candidates)

	env.SetPrice(fixture.MarketX, "0.99")
	candidates, err = env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, fixture.Alice, c.Liquid)
	assert.False(t, c.NeedsPrepare)
	require.NotEmpty(t, c.Plans)
	assert.Equal(t, fixture.Venue, c.Plans[0].TraderParams[0].Trader)

	_, err = env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: c.Liquid, Plan: *c.Plans[0]})
	assert.Nil(t, err)
}

func TestCandidatesIsolated(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketJX, fixture.Wei("100", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-140", 6))

	plans, err := env.Planner.Plans(ctx, fixture.Alice, nil)
	require.Nil(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, core.TraderTypeIsolationModeUnwrapper, plans[0].TraderParams[0].Type)
	assert.Equal(t, "jx-unwrapper", plans[0].TraderParams[0].Trader)
}

func TestCandidatesNeedPrepare(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketGX, fixture.Wei("100", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-180", 6))

	candidates, err := env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	require.True(t, c.NeedsPrepare)
	assert.Equal(t, fixture.MarketGX, c.Prepare.InputMarketID)
	assert.Equal(t, fixture.Wei("100", 18).String(), c.Prepare.InputAmount.String())

	c.Prepare.Solid = fixture.Keeper
	action, err := env.Freezable.PrepareForLiquidation(ctx, c.Prepare)
	require.Nil(t, err)

	// pending withdrawals offer no plan
	candidates, err = env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	assert.Empty(t, candidates)

	require.Nil(t, env.Redemption.Script(action.Key, core.RedemptionOutcome{Executed: true, OutputAmount: fixture.Wei("200", 6), Retryable: true}))
	require.Nil(t, env.Registry.AddLiquidator(ctx, fixture.Admin, fixture.MarketGX, "bob"))
	env.Advance(time.Minute)
	require.Equal(t, 1, env.Deliver(ctx))

	// executed but not settled, the planner routes through the withdrawal
	candidates, err = env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	require.Len(t, candidates, 1)
	require.Len(t, candidates[0].Plans, 1)
	assert.NotEmpty(t, candidates[0].Plans[0].TraderParams[0].TradeData)
}

func TestCandidatesExpired(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("200", 18))
	require.Nil(t, env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, fixture.Wei("50", 6)))
	require.Nil(t, env.Position.SetExpiry(ctx, fixture.Alice, fixture.MarketUSDC, fixture.Start.Add(time.Hour)))

	candidates, err := env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	assert.Empty(t, candidates)

	env.Advance(2 * time.Hour)
	candidates, err = env.Planner.Candidates(ctx, fixture.Keeper)
	require.Nil(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Expiry)

	_, err = env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   *candidates[0].Plans[0],
		Expiry: candidates[0].Expiry,
	})
	assert.Nil(t, err)
}
