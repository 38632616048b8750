package rest

import (
	"encoding/json"
	"net/http"

	"margin/core"
	"margin/handler/render"
)

// quote a liquidation without executing it
func previewHandler(liquidationSrv core.ILiquidationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req core.LiquidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.BadRequest(w, err)
			return
		}

		quote, err := liquidationSrv.Preview(r.Context(), &req)
		if err != nil {
			render.Reject(w, err)
			return
		}

		render.JSON(w, quote)
	}
}
