package worker

import (
	"context"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker a background job of the worker command
type Worker interface {
	Run(ctx context.Context) error
}

// OnWork one round of a job
type OnWork func(ctx context.Context) error

// BaseJob cron scheduled job, overlapping rounds are skipped
type BaseJob struct {
	Cron   *cron.Cron
	Spec   string
	OnWork OnWork
}

// NewBaseJob runs onWork on spec in location, "@every 10s" style specs included
func NewBaseJob(location, spec string, onWork OnWork) BaseJob {
	l, err := time.LoadLocation(location)
	if err != nil {
		l = time.UTC
	}

	return BaseJob{
		Cron:   cron.New(cron.WithLocation(l), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Spec:   spec,
		OnWork: onWork,
	}
}

// Run schedules the job until ctx is done
func (job *BaseJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := job.Cron.AddFunc(job.Spec, func() {
		if err := job.OnWork(ctx); err != nil {
			log.WithError(err).Debugln("job round failed")
		}
	}); err != nil {
		return err
	}

	job.Cron.Start()
	<-ctx.Done()
	<-job.Cron.Stop().Done()
	return nil
}

// TickWorker runs a round every Delay, ErrDelay after a failed round
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

// StartTick blocks until ctx is done
func (w *TickWorker) StartTick(ctx context.Context, onTick OnWork) error {
	dur := time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(dur):
			if err := onTick(ctx); err != nil {
				dur = w.errDelay()
			} else {
				dur = w.Delay
			}
		}
	}
}

func (w *TickWorker) errDelay() time.Duration {
	if w.ErrDelay > 0 {
		return w.ErrDelay
	}

	return w.Delay
}
