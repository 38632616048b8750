package callback

import (
	"errors"
	"net/http"

	"margin/core"
	"margin/handler/param"
	"margin/handler/render"
	"margin/handler/views"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
)

// Handle redemption outcome webhook of the async redemption system
func Handle(callback core.IRedemptionCallback) http.Handler {
	r := chi.NewRouter()
	r.Post("/", handleOutcome(callback))
	return r
}

func handleOutcome(callback core.IRedemptionCallback) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body struct {
			Key     string                 `json:"key" valid:"required"`
			Type    core.AsyncActionType   `json:"type"`
			Outcome core.RedemptionOutcome `json:"outcome"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		log := logger.FromContext(ctx).WithField("key", body.Key)

		var err error
		switch body.Type {
		case core.AsyncActionWithdrawal:
			err = callback.OnWithdrawalCallback(ctx, body.Key, &body.Outcome)
		case core.AsyncActionDeposit:
			err = callback.OnDepositCallback(ctx, body.Key, &body.Outcome)
		default:
			render.BadRequest(w, errors.New("unknown action type"))
			return
		}

		if err != nil {
			log.WithError(err).Errorln("callback", body.Type)
			render.Reject(w, err)
			return
		}

		render.JSON(w, views.DefaultSuccess)
	}
}
