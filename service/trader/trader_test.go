package trader

import (
	"context"
	"errors"
	"testing"

	"margin/core"
	"margin/pkg/tradedata"
	"margin/store/asyncaction"
	"margin/store/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	marketVault uint64 = 3
	marketUSDC  uint64 = 2
	marketWETH  uint64 = 4
)

func testRates() *StaticRates {
	rates := NewStaticRates()
	// 1 vault wei = 2 usdc wei
	rates.Set(marketVault, marketUSDC, decimal.NewFromInt(2), decimal.NewFromInt(1))
	return rates
}

func unwrapperConfig() LegConfig {
	return LegConfig{
		Name:         "vault-unwrapper",
		Direction:    core.LegDirectionUnwrap,
		Isolated:     marketVault,
		Counters:     []uint64{marketUSDC},
		Fee:          core.NewRatio(1, 100),
		Orchestrator: "engine",
	}
}

func TestSyncLeg(t *testing.T) {
	ctx := context.Background()
	l := NewSync(unwrapperConfig(), testRates())
	assert.Equal(t, core.LegModeSynchronous, l.Mode())
	assert.True(t, l.IsValidCounterMarket(marketUSDC))
	assert.False(t, l.IsValidCounterMarket(marketWETH))

	out, err := l.GetExchangeCost(ctx, marketVault, marketUSDC, decimal.NewFromInt(1000), nil)
	require.Nil(t, err)
	assert.Equal(t, "1980", out.String())

	_, err = l.GetExchangeCost(ctx, marketVault, marketWETH, decimal.NewFromInt(1000), nil)
	assert.True(t, errors.Is(err, core.ErrInvalidMarketPair))

	_, err = l.Exchange(ctx, nil, &core.ExchangeRequest{Caller: "mallory", InputMarketID: marketVault, OutputMarketID: marketUSDC, InputAmount: decimal.NewFromInt(1000)})
	assert.True(t, errors.Is(err, core.ErrUnauthorizedCaller))

	_, err = l.Exchange(ctx, nil, &core.ExchangeRequest{Caller: "engine", InputMarketID: marketVault, OutputMarketID: marketUSDC, InputAmount: decimal.NewFromInt(1000), MinOutput: decimal.NewFromInt(1981)})
	assert.True(t, errors.Is(err, core.ErrHopUnderDelivered))

	out, err = l.Exchange(ctx, nil, &core.ExchangeRequest{Caller: "engine", InputMarketID: marketVault, OutputMarketID: marketUSDC, InputAmount: decimal.NewFromInt(1000), MinOutput: decimal.NewFromInt(1980)})
	require.Nil(t, err)
	assert.Equal(t, "1980", out.String())
}

func TestSyncWrapper(t *testing.T) {
	cfg := unwrapperConfig()
	cfg.Name = "vault-wrapper"
	cfg.Direction = core.LegDirectionWrap
	cfg.Fee = core.Ratio{}

	l := NewSync(cfg, testRates())
	out, err := l.GetExchangeCost(context.Background(), marketUSDC, marketVault, decimal.NewFromInt(1001), nil)
	require.Nil(t, err)
	assert.Equal(t, "500", out.String())
}

func TestAsyncUnwrapper(t *testing.T) {
	ctx := context.Background()
	actions := asyncaction.Memory()
	l := NewAsyncUnwrapper(unwrapperConfig(), testRates(), actions)
	liquid := core.AccountID{Owner: "alice"}

	require.Nil(t, actions.Create(ctx, &core.AsyncAction{
		Key:            "w1",
		Type:           core.AsyncActionWithdrawal,
		Status:         core.AsyncActionExecuted,
		Owner:          liquid.Owner,
		InputMarketID:  marketVault,
		InputAmount:    decimal.NewFromInt(100),
		OutputMarketID: marketUSDC,
		OutputAmount:   decimal.NewFromInt(210),
		Retryable:      true,
		IsLiquidation:  true,
	}))

	data := tradedata.EncodeUnwrapper(tradedata.Unwrapper{Keys: []string{"w1"}})
	quote, err := l.GetExchangeCost(ctx, marketVault, marketUSDC, decimal.NewFromInt(50), data)
	require.Nil(t, err)
	assert.Equal(t, "105", quote.String())

	led := ledger.Memory()
	require.Nil(t, led.Tx(ctx, func(tx core.LedgerTx) error {
		out, err := l.Exchange(ctx, tx, &core.ExchangeRequest{
			Caller:         "engine",
			Liquid:         liquid,
			InputMarketID:  marketVault,
			OutputMarketID: marketUSDC,
			InputAmount:    decimal.NewFromInt(50),
			TradeData:      data,
		})
		require.Nil(t, err)
		assert.Equal(t, "105", out.String())
		return nil
	}))

	action, err := actions.Find(ctx, "w1")
	require.Nil(t, err)
	require.NotNil(t, action)
	assert.Equal(t, "50", action.InputAmount.String())
	assert.Equal(t, "105", action.OutputAmount.String())

	require.Nil(t, led.Tx(ctx, func(tx core.LedgerTx) error {
		_, err := l.Exchange(ctx, tx, &core.ExchangeRequest{
			Caller:         "engine",
			Liquid:         liquid,
			InputMarketID:  marketVault,
			OutputMarketID: marketUSDC,
			InputAmount:    decimal.NewFromInt(50),
		})
		return err
	}))

	action, _ = actions.Find(ctx, "w1")
	assert.Nil(t, action, "fully consumed withdrawals are removed")
}

func TestAsyncUnwrapperNotRetryable(t *testing.T) {
	ctx := context.Background()
	actions := asyncaction.Memory()
	l := NewAsyncUnwrapper(unwrapperConfig(), testRates(), actions)
	liquid := core.AccountID{Owner: "alice"}

	for _, a := range []*core.AsyncAction{
		{Key: "ok", Retryable: true},
		{Key: "bad", Retryable: false},
	} {
		a.Type = core.AsyncActionWithdrawal
		a.Status = core.AsyncActionExecuted
		a.Owner = liquid.Owner
		a.InputMarketID = marketVault
		a.OutputMarketID = marketUSDC
		a.InputAmount = decimal.NewFromInt(100)
		a.OutputAmount = decimal.NewFromInt(200)
		require.Nil(t, actions.Create(ctx, a))
	}

	led := ledger.Memory()
	err := led.Tx(ctx, func(tx core.LedgerTx) error {
		_, err := l.Exchange(ctx, tx, &core.ExchangeRequest{
			Caller:         "engine",
			Liquid:         liquid,
			InputMarketID:  marketVault,
			OutputMarketID: marketUSDC,
			InputAmount:    decimal.NewFromInt(50),
			TradeData:      tradedata.EncodeUnwrapper(tradedata.Unwrapper{Keys: []string{"ok", "bad"}}),
		})
		return err
	})
	assert.True(t, errors.Is(err, core.ErrTradesMustBeRetryable))

	ok, _ := actions.Find(ctx, "ok")
	assert.Equal(t, "100", ok.InputAmount.String(), "nothing consumed")
}

func TestAsyncWrapper(t *testing.T) {
	cfg := unwrapperConfig()
	cfg.Name = "vault-wrapper"
	l := NewAsyncWrapper(cfg, testRates())
	assert.Equal(t, core.LegDirectionWrap, l.Direction())

	_, err := l.Exchange(context.Background(), nil, &core.ExchangeRequest{Caller: "engine"})
	assert.True(t, errors.Is(err, core.ErrInvalidTrader))
}

func TestRegistry(t *testing.T) {
	a := NewSync(unwrapperConfig(), testRates())
	r := NewRegistry([]core.ConversionLeg{a}, nil)

	l, ok := r.Leg("vault-unwrapper")
	assert.True(t, ok)
	assert.Equal(t, a, l)

	_, ok = r.Venue("x")
	assert.False(t, ok)
	assert.Len(t, r.Legs(), 1)
}
