package rest

import (
	"net/http"

	"margin/core"
	"margin/handler/render"
	"margin/handler/views"

	"github.com/go-chi/chi"
	"github.com/spf13/cast"
)

func accountFromPath(r *http.Request) (core.AccountID, error) {
	number, err := cast.ToUint64E(chi.URLParam(r, "number"))
	if err != nil {
		return core.AccountID{}, err
	}

	return core.AccountID{Owner: chi.URLParam(r, "owner"), Number: number}, nil
}

func accountHandler(
	ledger core.Ledger,
	marketStr core.IMarketStore,
	expiryStr core.IExpiryStore,
	actionStr core.IAsyncActionStore,
	accountSrv core.IAccountService,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		account, err := accountFromPath(r)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		balances, err := ledger.Balances(ctx, account)
		if err != nil {
			render.Reject(w, err)
			return
		}

		markets, err := marketStr.AllAsMap(ctx)
		if err != nil {
			render.Reject(w, err)
			return
		}

		view := views.Account{AccountID: account}
		for _, id := range balances.MarketIDs() {
			b := &views.Balance{MarketID: id, Wei: balances.Get(id)}
			if m, ok := markets[id]; ok {
				b.Symbol = m.Symbol
				b.Amount = b.Wei.Shift(-m.Decimals)
			}

			view.Balances = append(view.Balances, b)

			if b.Wei.IsNegative() {
				expiry, err := expiryStr.Find(ctx, account, id)
				if err != nil {
					render.Reject(w, err)
					return
				}

				if expiry != nil {
					view.Expiries = append(view.Expiries, expiry)
				}
			}
		}

		values, err := accountSrv.Evaluate(ctx, balances)
		if err != nil {
			render.Reject(w, err)
			return
		}

		view.SupplyValue = values.SupplyValue
		view.BorrowValue = values.BorrowValue
		if view.Liquidatable, err = accountSrv.IsLiquidatable(ctx, balances); err != nil {
			render.Reject(w, err)
			return
		}

		if view.Actions, err = actionStr.FindByAccount(ctx, account); err != nil {
			render.Reject(w, err)
			return
		}

		view.FreezeState = core.FreezeStateOf(view.Actions).String()
		render.JSON(w, view)
	}
}
