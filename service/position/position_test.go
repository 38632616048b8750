package position_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"margin/core"
	"margin/internal/fixture"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdc(v string) decimal.Decimal { return fixture.Wei(v, 6) }

func TestWithdrawBorrow(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()

	require.Nil(t, env.Position.Deposit(ctx, fixture.Alice, fixture.MarketX, fixture.Wei("100", 18)))

	// 102.19 of collateral supports 88.86 of debt at 115%
	err := env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, usdc("89"))
	assert.True(t, errors.Is(err, core.ErrInsufficientCollaterals))
	assert.True(t, env.Balance(fixture.Alice, fixture.MarketUSDC).IsZero())

	require.Nil(t, env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, usdc("88")))
	assert.Equal(t, usdc("-88").String(), env.Balance(fixture.Alice, fixture.MarketUSDC).String())

	err = env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketX, decimal.NewFromFloat(0.5))
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))
}

func TestIsolatedDebtSet(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()

	require.Nil(t, env.Position.Deposit(ctx, fixture.Alice, fixture.MarketJX, fixture.Wei("100", 18)))

	err := env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketWETH, fixture.Wei("0.01", 18))
	assert.True(t, errors.Is(err, core.ErrInvalidMarketPair))

	require.Nil(t, env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, usdc("20")))
}

func TestRepayAndExpiry(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("100", 18))

	err := env.Position.SetExpiry(ctx, fixture.Alice, fixture.MarketUSDC, fixture.Start.Add(time.Hour))
	assert.True(t, errors.Is(err, core.ErrNoDebt))

	require.Nil(t, env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, usdc("50")))
	require.Nil(t, env.Position.SetExpiry(ctx, fixture.Alice, fixture.MarketUSDC, fixture.Start.Add(time.Hour)))

	err = env.Position.Repay(ctx, fixture.Alice, fixture.MarketUSDC, usdc("51"))
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))

	require.Nil(t, env.Position.Repay(ctx, fixture.Alice, fixture.MarketUSDC, usdc("20")))
	tag, err := env.Expiries.Find(ctx, fixture.Alice, fixture.MarketUSDC)
	require.Nil(t, err)
	assert.NotNil(t, tag)

	require.Nil(t, env.Position.Repay(ctx, fixture.Alice, fixture.MarketUSDC, usdc("30")))
	tag, err = env.Expiries.Find(ctx, fixture.Alice, fixture.MarketUSDC)
	require.Nil(t, err)
	assert.Nil(t, tag, "cleared debt drops its expiry")
}

func TestFrozenAccount(t *testing.T) {
	ctx := context.Background()
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketUSDC, usdc("100"))

	_, err := env.Freezable.SubmitDeposit(ctx, &core.DepositRequest{
		Account:         fixture.Alice,
		InputMarketID:   fixture.MarketUSDC,
		InputAmount:     usdc("10"),
		OutputMarketID:  fixture.MarketGX,
		MinOutputAmount: decimal.Zero,
	})
	require.Nil(t, err)

	for name, op := range map[string]func() error{
		"deposit":  func() error { return env.Position.Deposit(ctx, fixture.Alice, fixture.MarketUSDC, usdc("1")) },
		"withdraw": func() error { return env.Position.Withdraw(ctx, fixture.Alice, fixture.MarketUSDC, usdc("1")) },
		"expiry":   func() error { return env.Position.ClearExpiry(ctx, fixture.Alice, fixture.MarketUSDC) },
	} {
		assert.True(t, errors.Is(op(), core.ErrAccountFrozen), name)
	}

	// other sub accounts of the owner are not frozen
	other := core.AccountID{Owner: fixture.Alice.Owner, Number: 2}
	assert.Nil(t, env.Position.Deposit(ctx, other, fixture.MarketUSDC, usdc("1")))
}
