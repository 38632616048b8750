package rest

import (
	"net/http"

	"margin/core"
	"margin/handler/render"

	"github.com/go-chi/chi"
)

func actionHandler(actionStr core.IAsyncActionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := actionStr.Find(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			render.Reject(w, err)
			return
		}

		if action == nil {
			render.Reject(w, core.ErrActionNotFound)
			return
		}

		render.JSON(w, action)
	}
}
