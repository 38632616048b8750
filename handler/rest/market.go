package rest

import (
	"net/http"

	"margin/core"
	"margin/handler/render"
)

func marketsHandler(marketStr core.IMarketStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markets, err := marketStr.All(r.Context())
		if err != nil {
			render.Reject(w, err)
			return
		}

		render.JSON(w, markets)
	}
}
