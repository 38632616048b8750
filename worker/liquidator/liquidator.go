package liquidator

import (
	"context"
	"errors"
	"time"

	"margin/core"
	"margin/pkg/id"
	"margin/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
)

const checkpointKey = "liquidator_checkpoint"

// Config liquidation keeper options
type Config struct {
	// the keeper's solid account, its owner must be whitelisted where required
	Solid    core.AccountID
	Delay    time.Duration
	ErrDelay time.Duration
	Now      func() time.Time
}

// Liquidator keeper liquidating every candidate the planner finds
//
// plans of a candidate are tried in order, the candidate is given up only
// after every plan reverted
type Liquidator struct {
	worker.TickWorker
	cfg         Config
	planner     core.IPlanner
	liquidation core.ILiquidationService
	freezable   core.IFreezableVaultService
	property    property.Store
	metrics     *metrics
}

// New liquidation keeper, property may be nil
func New(
	cfg Config,
	planner core.IPlanner,
	liquidation core.ILiquidationService,
	freezable core.IFreezableVaultService,
	property property.Store,
) *Liquidator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Delay <= 0 {
		cfg.Delay = 5 * time.Second
	}

	return &Liquidator{
		TickWorker:  worker.TickWorker{Delay: cfg.Delay, ErrDelay: cfg.ErrDelay},
		cfg:         cfg,
		planner:     planner,
		liquidation: liquidation,
		freezable:   freezable,
		property:    property,
		metrics:     keeperMetrics(),
	}
}

// Run run worker
func (w *Liquidator) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		_, err := w.Round(ctx)
		return err
	})
}

// Round liquidates the current candidates once, returns the number of settled liquidations
// and prepared unwraps
func (w *Liquidator) Round(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithField("worker", "liquidator")
	ctx = logger.WithContext(ctx, log)

	candidates, err := w.planner.Candidates(ctx, w.cfg.Solid)
	if err != nil {
		log.WithError(err).Errorln("planner.Candidates")
		return 0, err
	}

	w.metrics.candidates.Set(float64(len(candidates)))

	var done int
	for _, c := range candidates {
		if w.handle(ctx, c) {
			done++
		}
	}

	w.metrics.rounds.Inc()
	if w.property != nil {
		if err := w.property.Save(ctx, checkpointKey, w.cfg.Now().Format(time.RFC3339Nano)); err != nil {
			log.WithError(err).Errorln("property.Save", checkpointKey)
			return done, err
		}
	}

	if len(candidates) == 0 {
		return 0, errors.New("EOF")
	}

	return done, nil
}

func (w *Liquidator) handle(ctx context.Context, c *core.Candidate) bool {
	log := logger.FromContext(ctx).WithField("liquid", c.Liquid.String())

	if c.NeedsPrepare {
		req := *c.Prepare
		req.Solid = w.cfg.Solid

		action, err := w.freezable.PrepareForLiquidation(ctx, &req)
		if err != nil {
			w.metrics.observePrepare("rejected")
			log.WithError(err).Warnln("freezable.PrepareForLiquidation")
			return false
		}

		w.metrics.observePrepare("submitted")
		log.WithField("key", action.Key).Infoln("liquidation unwrap submitted")
		return true
	}

	for _, plan := range c.Plans {
		result, err := w.liquidation.Liquidate(ctx, &core.LiquidateRequest{
			Solid:   w.cfg.Solid,
			Liquid:  c.Liquid,
			Plan:    *plan,
			Expiry:  c.Expiry,
			TraceID: id.GenTraceID(),
		})

		if err != nil {
			w.metrics.observeAttempt(core.LiquidationStateReverted.String())
			log.WithError(err).WithField("plan", plan.MarketIDsPath.String()).Debugln("plan reverted")
			continue
		}

		w.metrics.observeAttempt(result.State.String())
		log.WithField("trace", result.TraceID).Infoln("liquidated", result.OwedAmount, "for", result.HeldAmount)
		return true
	}

	log.Warnln("every plan reverted", len(c.Plans))
	return false
}
