package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"margin/core"
	"margin/handler"
	"margin/handler/views"
	"margin/internal/fixture"
	"margin/pkg/routes"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(env *fixture.Env) *httptest.Server {
	return httptest.NewServer(handler.Server{
		Version:      "test",
		Ledger:       env.Ledger,
		Markets:      env.Markets,
		Expiries:     env.Expiries,
		Actions:      env.Actions,
		Transactions: env.Transactions,
		Accounts:     env.Accounts,
		Liquidation:  env.Liquidation,
		Freezable:    env.Freezable,
	}.Handler())
}

func TestHealthCheck(t *testing.T) {
	server := newServer(fixture.New())
	defer server.Close()

	resp, err := http.Get(server.URL + "/hc")
	require.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test", body["version"])
}

func TestAccountView(t *testing.T) {
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("200", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-174", 6))
	env.SetPrice(fixture.MarketX, "0.99")

	server := newServer(env)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/accounts/alice/1")
	require.Nil(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view views.Account
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, fixture.Alice, view.AccountID)
	assert.True(t, view.Liquidatable)
	assert.Equal(t, core.Unfrozen.String(), view.FreezeState)
	require.Len(t, view.Balances, 2)
	assert.Equal(t, "X", view.Balances[0].Symbol)
	assert.Equal(t, "200", view.Balances[0].Amount.String())
	assert.Equal(t, "-174", view.Balances[1].Amount.String())

	resp, err = http.Get(server.URL + "/api/accounts/alice/one")
	require.Nil(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreview(t *testing.T) {
	env := fixture.New()
	env.Fund(fixture.Alice, fixture.MarketX, fixture.Wei("200", 18))
	env.Fund(fixture.Alice, fixture.MarketUSDC, fixture.Wei("-174", 6))

	server := newServer(env)
	defer server.Close()

	req := core.LiquidateRequest{
		Solid:  fixture.Keeper,
		Liquid: fixture.Alice,
		Plan: core.Plan{
			MarketIDsPath:  routes.Routes{fixture.MarketX, fixture.MarketUSDC},
			AmountWeisPath: []decimal.Decimal{decimal.Zero, decimal.Zero},
			TraderParams:   []core.TraderParam{{Type: core.TraderTypeExternalLiquidity, Trader: fixture.Venue}},
		},
	}

	post := func() (*http.Response, map[string]interface{}) {
		body, err := json.Marshal(req)
		require.Nil(t, err)

		resp, err := http.Post(server.URL+"/api/liquidations/preview", "application/json", bytes.NewReader(body))
		require.Nil(t, err)
		defer resp.Body.Close()

		var out map[string]interface{}
		require.Nil(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	resp, out := post()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.EqualValues(t, core.ErrNotLiquidatable, out["code"])

	env.SetPrice(fixture.MarketX, "0.99")
	resp, out = post()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "184545454545454545454", out["held_amount"])
}

func TestCallbackUnknownAction(t *testing.T) {
	server := newServer(fixture.New())
	defer server.Close()

	body := `{"key":"missing","type":1,"outcome":{"executed":true,"output_amount":"1","retryable":true}}`
	resp, err := http.Post(server.URL+"/callbacks", "application/json", bytes.NewBufferString(body))
	require.Nil(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(server.URL+"/callbacks", "application/json", bytes.NewBufferString(`{"type":1}`))
	require.Nil(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
