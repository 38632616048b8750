package handler

import (
	"context"
	"net/http"

	"margin/core"
	"margin/handler/callback"
	"margin/handler/hc"
	"margin/handler/rest"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server server
type Server struct {
	Version      string
	Ledger       core.Ledger
	Markets      core.IMarketStore
	Expiries     core.IExpiryStore
	Actions      core.IAsyncActionStore
	Transactions core.TransactionStore
	Accounts     core.IAccountService
	Liquidation  core.ILiquidationService
	Freezable    core.IFreezableVaultService
}

// Handler the api mux: health check, metrics, redemption callbacks and the restful api
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)

	mux.Mount("/hc", hc.Handle(s.Version, map[string]hc.Ping{
		"markets": func(ctx context.Context) error {
			_, err := s.Markets.All(ctx)
			return err
		},
	}))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Mount("/callbacks", callback.Handle(s.Freezable))
	mux.Mount("/api", s.HandleRestAPI())

	return mux
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	return rest.Handle(s.Ledger, s.Markets, s.Expiries, s.Actions, s.Transactions, s.Accounts, s.Liquidation)
}
