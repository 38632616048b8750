package cmd

import (
	"margin/core"
	"margin/service/priceoracle"
	"margin/worker"
	"margin/worker/liquidator"
	oracleworker "margin/worker/priceoracle"
	"margin/worker/redemption"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "margin job worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		e := provideEngine()
		defer e.db.Close()

		workers := []worker.Worker{
			oracleworker.New(
				oracleworker.Config{Location: cfg.App.Location, Spec: cfg.PriceFeed.Spec, TTL: cfg.Risk.PriceTTL},
				e.markets, e.prices, providePriceTicker(),
			),
			liquidator.New(
				liquidator.Config{Solid: cfg.Liquidator.Account(), Delay: cfg.Liquidator.Interval},
				e.planner, e.liquidation, e.freezable, e.property,
			),
			redemption.New(
				redemption.Config{CallbackURL: cfg.Redemption.CallbackURL, Delay: cfg.Redemption.PollInterval},
				e.redemption, e.freezable,
			),
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, w := range workers {
			w := w
			g.Go(func() error {
				return w.Run(ctx)
			})
		}

		if err := g.Wait(); err != nil {
			log.WithError(err).Errorln("worker aborted")
		}
	},
}

// providePriceTicker http feed when configured, the configured unit prices otherwise
func providePriceTicker() core.IPriceTicker {
	prices := make(map[uint64]decimal.Decimal, len(cfg.Markets))
	for _, m := range cfg.Markets {
		if v, err := decimal.NewFromString(m.Price); err == nil {
			prices[m.ID] = v
		}
	}

	if cfg.PriceFeed.Endpoint == "" {
		return priceoracle.Static(prices)
	}

	return priceoracle.Fallback(priceoracle.HTTP(cfg.PriceFeed.Endpoint), priceoracle.Static(prices))
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
