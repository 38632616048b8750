package rest

import (
	"errors"
	"net/http"

	"margin/core"
	"margin/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	ledger core.Ledger,
	marketStore core.IMarketStore,
	expiryStore core.IExpiryStore,
	actionStore core.IAsyncActionStore,
	transactionStore core.TransactionStore,
	accountService core.IAccountService,
	liquidationService core.ILiquidationService,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/markets", marketsHandler(marketStore))
	router.Get("/accounts/{owner}/{number}", accountHandler(ledger, marketStore, expiryStore, actionStore, accountService))
	router.Get("/accounts/{owner}/{number}/transactions", accountTransactionsHandler(transactionStore))
	router.Get("/actions/{key}", actionHandler(actionStore))
	router.Get("/transactions", transactionsHandler(transactionStore))
	router.Post("/liquidations/preview", previewHandler(liquidationService))

	return router
}
