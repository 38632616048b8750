package redemption

import (
	"context"
	"errors"
	"time"

	"margin/core"
	"margin/pkg/resthttp"
	"margin/service/redemption"
	"margin/worker"

	"github.com/fox-one/pkg/logger"
)

// Source executed redemption requests awaiting delivery
type Source interface {
	Due(ctx context.Context) []*redemption.Delivery
	Ack(key string)
}

// Config redemption keeper options
type Config struct {
	// CallbackURL posts outcomes to the callback webhook, empty delivers in process
	CallbackURL string
	Delay       time.Duration
	ErrDelay    time.Duration
}

// Keeper delivers redemption outcomes to the freezable vault
//
// undelivered outcomes stay due and are retried next round
type Keeper struct {
	worker.TickWorker
	cfg      Config
	source   Source
	callback core.IRedemptionCallback
}

// New redemption keeper
func New(cfg Config, source Source, callback core.IRedemptionCallback) *Keeper {
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}

	return &Keeper{
		TickWorker: worker.TickWorker{Delay: cfg.Delay, ErrDelay: cfg.ErrDelay},
		cfg:        cfg,
		source:     source,
		callback:   callback,
	}
}

// Run run worker
func (w *Keeper) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		_, err := w.Deliver(ctx)
		return err
	})
}

// Deliver every due outcome once, returns the number delivered
func (w *Keeper) Deliver(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithField("worker", "redemption")

	deliveries := w.source.Due(ctx)
	if len(deliveries) == 0 {
		return 0, errors.New("EOF")
	}

	var (
		n       int
		lastErr error
	)

	for _, d := range deliveries {
		if err := w.deliver(ctx, d); err != nil {
			log.WithError(err).WithField("key", d.Key).Errorln("deliver", d.Type)
			lastErr = err
			continue
		}

		w.source.Ack(d.Key)
		n++
	}

	return n, lastErr
}

func (w *Keeper) deliver(ctx context.Context, d *redemption.Delivery) error {
	if w.cfg.CallbackURL != "" {
		return resthttp.Post(ctx, d.Key, w.cfg.CallbackURL, d, nil)
	}

	switch d.Type {
	case core.AsyncActionDeposit:
		return w.callback.OnDepositCallback(ctx, d.Key, &d.Outcome)
	default:
		return w.callback.OnWithdrawalCallback(ctx, d.Key, &d.Outcome)
	}
}
