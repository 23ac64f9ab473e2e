package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs registered jobs on standard five-field cron specs.
// Each job is guarded so a slow run never overlaps the next tick.
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	entryID, err := c.cron.AddFunc(spec, c.wrap(job))
	if err != nil {
		logutil.GetLogger(context.Background()).Error("register cron job failed",
			zap.String("name", job.Name()), zap.String("cron", spec), zap.Error(err))
		return err
	}
	c.entries[job.Name()] = entryID
	logutil.GetLogger(context.Background()).Info("cron job registered",
		zap.String("name", job.Name()), zap.String("cron", spec))
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("name", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Info("cron job still running, skip this tick")
			return
		}
		defer running.Store(false)

		start := time.Now()
		logger.Info("cron job start")
		if err := job.Run(ctx); err != nil {
			logger.Error("cron job failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
			return
		}
		logger.Info("cron job done", zap.Duration("cost", time.Since(start)))
	}
}
