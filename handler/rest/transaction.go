package rest

import (
	"net/http"
	"time"

	"margin/core"
	"margin/handler/param"
	"margin/handler/render"
)

// response audit records
func transactionsHandler(transactionStr core.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params struct {
			Offset string `json:"offset"`
			Limit  int    `json:"limit"`
		}

		if e := param.Binding(r, &params); e != nil {
			render.BadRequest(w, e)
			return
		}

		limit := params.Limit
		if limit <= 0 {
			limit = 500
		}

		offsetTime, err := time.Parse(time.RFC3339Nano, params.Offset)
		if err != nil {
			offsetTime = time.Time{}
		}

		transactions, e := transactionStr.List(ctx, offsetTime, limit)
		if e != nil {
			render.Reject(w, e)
			return
		}

		render.JSON(w, transactions)
	}
}

func accountTransactionsHandler(transactionStr core.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromPath(r)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		var params struct {
			Limit int `json:"limit"`
		}

		if e := param.Binding(r, &params); e != nil {
			render.BadRequest(w, e)
			return
		}

		if params.Limit <= 0 {
			params.Limit = 100
		}

		transactions, err := transactionStr.ListByAccount(r.Context(), account, params.Limit)
		if err != nil {
			render.Reject(w, err)
			return
		}

		render.JSON(w, transactions)
	}
}
