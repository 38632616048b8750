package liquidation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"margin/core"
	"margin/internal/fixture"
	"margin/pkg/routes"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	x    = func(v string) decimal.Decimal { return fixture.Wei(v, 18) }
	usdc = func(v string) decimal.Decimal { return fixture.Wei(v, 6) }
)

func venuePlan(held, owed uint64, venue string, amounts ...decimal.Decimal) core.Plan {
	if len(amounts) == 0 {
		amounts = []decimal.Decimal{decimal.Zero, decimal.Zero}
	}

	return core.Plan{
		MarketIDsPath:  routes.Routes{held, owed},
		AmountWeisPath: amounts,
		TraderParams:   []core.TraderParam{{Type: core.TraderTypeExternalLiquidity, Trader: venue}},
	}
}

// alice holds 200 X against 174 USDC of debt
func scenario(t *testing.T) *fixture.Env {
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, x("200"))
	env.Fund(fixture.Alice, fixture.MarketUSDC, usdc("-174"))
	return env
}

func TestLiquidateScenario(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)

	req := &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue),
	}

	before := env.Snapshot(fixture.Alice, fixture.Keeper)
	result, err := env.Liquidation.Liquidate(ctx, req)
	assert.True(t, errors.Is(err, core.ErrNotLiquidatable))
	assert.Equal(t, core.LiquidationStateReverted, result.State)
	assert.Equal(t, before, env.Snapshot(fixture.Alice, fixture.Keeper))

	env.SetPrice(fixture.MarketX, "0.99")
	result, err = env.Liquidation.Liquidate(ctx, req)
	require.Nil(t, err)

	assert.Equal(t, core.LiquidationStateSettled, result.State)
	assert.Equal(t, "174000000", result.OwedAmount.String())
	assert.Equal(t, "184545454545454545454", result.HeldAmount.String())
	assert.Equal(t, "182699999", result.OutputAmount.String())
	assert.True(t, result.FullRepay)
	assert.False(t, result.CloseOut)
	require.Len(t, result.Hops, 1)

	assert.True(t, env.Balance(fixture.Alice, fixture.MarketUSDC).IsZero())
	assert.Equal(t, "15454545454545454546", env.Balance(fixture.Alice, fixture.MarketX).String())
	assert.True(t, env.Balance(fixture.Keeper, fixture.MarketX).IsZero())
	assert.Equal(t, "8699999", env.Balance(fixture.Keeper, fixture.MarketUSDC).String())

	record, err := env.Transactions.FindByTraceID(ctx, result.TraceID)
	require.Nil(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.TransactionActionLiquidate, record.Action)
	assert.Equal(t, core.TransactionStatusComplete, record.Status)
}

func TestLiquidateAtomic(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)
	env.SetPrice(fixture.MarketX, "0.99")

	tests := []struct {
		name string
		plan core.Plan
		err  core.ErrorCode
	}{
		{
			name: "hop under delivered",
			plan: venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue, decimal.Zero, usdc("182.7")),
			err:  core.ErrHopUnderDelivered,
		},
		{
			name: "output below debt",
			plan: venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.VenueLossy),
			err:  core.ErrInsufficientOutput,
		},
		{
			name: "input above max reward",
			plan: venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue, x("190"), decimal.Zero),
			err:  core.ErrInvalidAmount,
		},
		{
			name: "unknown venue",
			plan: venuePlan(fixture.MarketX, fixture.MarketUSDC, "nowhere"),
			err:  core.ErrInvalidTrader,
		},
		{
			name: "no debt in owed market",
			plan: venuePlan(fixture.MarketX, fixture.MarketWETH, fixture.Venue),
			err:  core.ErrNoDebt,
		},
		{
			name: "traders length",
			plan: core.Plan{
				MarketIDsPath:  routes.Routes{fixture.MarketX, fixture.MarketUSDC},
				AmountWeisPath: []decimal.Decimal{decimal.Zero, decimal.Zero},
			},
			err: core.ErrInvalidPlan,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := env.Snapshot(fixture.Alice, fixture.Keeper)
			result, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{
				Solid:  fixture.Keeper,
				Liquid: fixture.Alice,
				Plan:   test.plan,
			})

			assert.True(t, errors.Is(err, test.err), "got %v", err)
			assert.Equal(t, core.LiquidationStateReverted, result.State)
			assert.Equal(t, before, env.Snapshot(fixture.Alice, fixture.Keeper))

			record, err := env.Transactions.FindByTraceID(ctx, result.TraceID)
			require.Nil(t, err)
			require.NotNil(t, record)
			assert.Equal(t, core.TransactionStatusAbort, record.Status)
		})
	}
}

func TestLiquidatePartial(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)
	env.SetPrice(fixture.MarketX, "0.99")

	result, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue, x("105"), decimal.Zero),
	})
	require.Nil(t, err)

	assert.Equal(t, "99000000", result.OwedAmount.String())
	assert.Equal(t, x("105").String(), result.HeldAmount.String())
	assert.False(t, result.FullRepay)
	assert.False(t, result.CloseOut)

	assert.Equal(t, usdc("-75").String(), env.Balance(fixture.Alice, fixture.MarketUSDC).String())
	assert.Equal(t, x("95").String(), env.Balance(fixture.Alice, fixture.MarketX).String())
	assert.Equal(t, "4950000", env.Balance(fixture.Keeper, fixture.MarketUSDC).String())
}

func TestLiquidateCloseOut(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, x("100"))
	env.Fund(fixture.Alice, fixture.MarketUSDC, usdc("-174"))
	env.SetPrice(fixture.MarketX, "0.99")

	result, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue),
	})
	require.Nil(t, err)

	assert.True(t, result.CloseOut)
	assert.False(t, result.FullRepay)
	assert.Equal(t, "94285714", result.OwedAmount.String())
	assert.True(t, env.Balance(fixture.Alice, fixture.MarketX).IsZero())
	// the shortfall stays on the liquid account
	assert.Equal(t, "-79714286", env.Balance(fixture.Alice, fixture.MarketUSDC).String())
	assert.Equal(t, "4714286", env.Balance(fixture.Keeper, fixture.MarketUSDC).String())
}

func TestLiquidatePreconditions(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)
	env.SetPrice(fixture.MarketX, "0.99")
	plan := venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue)

	t.Run("self liquidation", func(t *testing.T) {
		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Alice, Liquid: fixture.Alice, Plan: plan})
		assert.True(t, errors.Is(err, core.ErrSelfLiquidation))
	})

	t.Run("held equals owed", func(t *testing.T) {
		p := venuePlan(fixture.MarketUSDC, fixture.MarketUSDC, fixture.Venue)
		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: p})
		assert.True(t, errors.Is(err, core.ErrInvalidMarketPair))
	})

	t.Run("restricted whitelist", func(t *testing.T) {
		require.Nil(t, env.Registry.AddLiquidator(ctx, fixture.Admin, fixture.MarketX, "bob"))
		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: plan})
		assert.True(t, errors.Is(err, core.ErrLiquidatorNotWhitelisted))

		require.Nil(t, env.Registry.AddLiquidator(ctx, fixture.Admin, fixture.MarketX, "carol"))
		require.Nil(t, env.Registry.RemoveLiquidator(ctx, fixture.Admin, fixture.MarketX, "bob"))
		_, err = env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: plan})
		assert.True(t, errors.Is(err, core.ErrLiquidatorNotWhitelisted))

		require.Nil(t, env.Registry.SetUnrestricted(ctx, fixture.Admin, fixture.MarketX))
	})

	t.Run("frozen account", func(t *testing.T) {
		require.Nil(t, env.Actions.Create(ctx, &core.AsyncAction{
			Key:    "frozen",
			Type:   core.AsyncActionDeposit,
			Owner:  fixture.Alice.Owner,
			Number: fixture.Alice.Number,
		}))
		defer env.Actions.Delete(ctx, "frozen")

		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: plan})
		assert.True(t, errors.Is(err, core.ErrAccountFrozen))
	})

	_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: plan})
	assert.Nil(t, err)
}

func TestLiquidateExpiry(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)

	expiresAt := fixture.Start.Add(time.Hour)
	require.Nil(t, env.Position.SetExpiry(ctx, fixture.Alice, fixture.MarketUSDC, expiresAt))

	req := &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue),
		Expiry: &expiresAt,
	}

	_, err := env.Liquidation.Liquidate(ctx, req)
	assert.True(t, errors.Is(err, core.ErrNotExpired))

	env.Advance(90 * time.Minute)

	other := expiresAt.Add(time.Second)
	_, err = env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: req.Solid, Liquid: req.Liquid, Plan: req.Plan, Expiry: &other})
	assert.True(t, errors.Is(err, core.ErrExpiryMismatch))

	// collateralized, liquidatable by expiry alone, half way through the ramp
	quote, err := env.Liquidation.Preview(ctx, req)
	require.Nil(t, err)
	assert.Equal(t, "1025000000000000000000000000000", quote.OwedPriceAdj.String())

	result, err := env.Liquidation.Liquidate(ctx, req)
	require.Nil(t, err)
	assert.Equal(t, "174527840297485076817", result.HeldAmount.String())
	assert.Equal(t, "25472159702514923183", env.Balance(fixture.Alice, fixture.MarketX).String())
	assert.Equal(t, "4349999", env.Balance(fixture.Keeper, fixture.MarketUSDC).String())
}

func TestLiquidateIsolated(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketJX, x("100"))
	env.Fund(fixture.Alice, fixture.MarketUSDC, usdc("-140"))

	t.Run("venue on isolated market", func(t *testing.T) {
		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{
			Solid:  fixture.Keeper,
			Liquid: fixture.Alice,
			Plan:   venuePlan(fixture.MarketJX, fixture.MarketUSDC, fixture.Venue),
		})
		assert.True(t, errors.Is(err, core.ErrInvalidTrader))
	})

	unwrap := func(leg string) core.Plan {
		return core.Plan{
			MarketIDsPath:  routes.Routes{fixture.MarketJX, fixture.MarketUSDC},
			AmountWeisPath: []decimal.Decimal{decimal.Zero, decimal.Zero},
			TraderParams:   []core.TraderParam{{Type: core.TraderTypeIsolationModeUnwrapper, Trader: leg}},
		}
	}

	t.Run("leg bound to another market", func(t *testing.T) {
		_, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: unwrap("gx-unwrapper")})
		assert.True(t, errors.Is(err, core.ErrInvalidTrader))
	})

	result, err := env.Liquidation.Liquidate(ctx, &core.LiquidateRequest{Solid: fixture.Keeper, Liquid: fixture.Alice, Plan: unwrap("jx-unwrapper")})
	require.Nil(t, err)
	assert.Equal(t, x("98").String(), result.HeldAmount.String())
	assert.Equal(t, usdc("147").String(), result.OutputAmount.String())
	assert.Equal(t, x("2").String(), env.Balance(fixture.Alice, fixture.MarketJX).String())
	assert.True(t, env.Balance(fixture.Alice, fixture.MarketUSDC).IsZero())
	assert.Equal(t, usdc("7").String(), env.Balance(fixture.Keeper, fixture.MarketUSDC).String())
}

func TestPreviewDoesNotExecute(t *testing.T) {
	ctx := context.Background()
	env := scenario(t)
	env.SetPrice(fixture.MarketX, "0.99")

	before := env.Snapshot(fixture.Alice, fixture.Keeper)
	quote, err := env.Liquidation.Preview(ctx, &core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan:   venuePlan(fixture.MarketX, fixture.MarketUSDC, fixture.Venue),
	})
	require.Nil(t, err)
	assert.Equal(t, "184545454545454545454", quote.HeldAmount.String())
	assert.Equal(t, before, env.Snapshot(fixture.Alice, fixture.Keeper))

	list, err := env.Transactions.List(ctx, time.Time{}, 10)
	require.Nil(t, err)
	assert.Empty(t, list)
}
