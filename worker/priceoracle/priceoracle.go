package priceoracle

import (
	"context"
	"sync"
	"time"

	"margin/core"
	"margin/pkg/concurrency"
	"margin/pkg/number"
	"margin/worker"

	"github.com/fox-one/pkg/logger"
)

// Config price feed worker options
type Config struct {
	Location string
	Spec     string
	// validity window of a pushed price
	TTL time.Duration
	Now func() time.Time
}

// Worker pulls unit prices of every market into the price store
type Worker struct {
	worker.BaseJob
	cfg         Config
	MarketStore core.IMarketStore
	PriceStore  core.IPriceStore
	Ticker      core.IPriceTicker
}

// New price feed worker
func New(cfg Config, marketStore core.IMarketStore, priceStore core.IPriceStore, ticker core.IPriceTicker) *Worker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Spec == "" {
		cfg.Spec = "@every 10s"
	}

	w := &Worker{
		cfg:         cfg,
		MarketStore: marketStore,
		PriceStore:  priceStore,
		Ticker:      ticker,
	}

	w.BaseJob = worker.NewBaseJob(cfg.Location, cfg.Spec, w.onWork)
	return w
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "priceoracle")

	markets, err := w.MarketStore.All(ctx)
	if err != nil {
		log.WithError(err).Errorln("markets.All")
		return err
	}

	if len(markets) == 0 {
		log.Debugln("no market found")
		return nil
	}

	limit := concurrency.NewGoLimit(8)
	wg := sync.WaitGroup{}
	for _, m := range markets {
		wg.Add(1)
		limit.Add()
		go func(market *core.Market) {
			defer wg.Done()
			defer limit.Done()

			if err := w.push(ctx, market); err != nil {
				log.WithError(err).Warnln("push price", market.Symbol)
			}
		}(m)
	}

	wg.Wait()
	return nil
}

// Push one round, used by tests and the migrate command
func (w *Worker) Push(ctx context.Context) error {
	return w.onWork(ctx)
}

func (w *Worker) push(ctx context.Context, market *core.Market) error {
	unit, err := w.Ticker.PullPrice(ctx, market)
	if err != nil {
		return err
	}

	return w.PriceStore.Save(ctx, &core.Price{
		MarketID:   market.ID,
		Value:      number.Price(unit, market.Decimals),
		ValidUntil: w.cfg.Now().Add(w.cfg.TTL),
	})
}
