// Package trigger provides external drivers that repeatedly execute a
// flow.Flow. CronDriver mirrors the teacher's workflow.Scheduler's
// reload/makeCronFunc structure, but fires a single in-process run per
// tick — there is no cluster lock, since distribution across machines is
// out of scope for this engine.
package trigger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/logi"
	"github.com/worldline-go/hardloop"
)

// cronRunner is satisfied by hardloop's unexported cron job type returned
// from hardloop.NewCron, the same indirection the teacher's scheduler.go
// uses to avoid naming the unexported struct.
type cronRunner interface {
	Start(ctx context.Context) error
	Stop()
}

// CronDriver runs a Flow builder on a cron schedule, one full Flow.Run per
// tick. NewFlow is called fresh on every tick since a Flow cannot be reused
// once it has run.
type CronDriver struct {
	Name     string
	Schedule string
	NewFlow  func() (*flow.Flow, *flow.GlobalBag)

	// OnResult, if set, is called with the outcome of each tick's run.
	OnResult func(global *flow.GlobalBag, err error)

	mu     sync.Mutex
	cron   cronRunner
	cancel context.CancelFunc
}

// Start builds and starts the underlying hardloop cron runner. Safe to call
// once; call Stop before calling Start again.
func (d *CronDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cronJob, err := hardloop.NewCron(hardloop.Cron{
		Name:  d.Name,
		Specs: []string{d.Schedule},
		Func:  d.tick,
	})
	if err != nil {
		return fmt.Errorf("trigger: create cron runner: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.cron = cronJob

	if err := cronJob.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("trigger: start cron runner: %w", err)
	}

	logi.Ctx(ctx).Info("trigger: started cron driver", "name", d.Name, "schedule", d.Schedule)
	return nil
}

// Stop cancels the runner. Safe to call multiple times.
func (d *CronDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cron != nil {
		d.cron.Stop()
		d.cron = nil
	}
}

func (d *CronDriver) tick(ctx context.Context) error {
	f, global := d.NewFlow()

	result, err := f.Run(ctx, global)
	if d.OnResult != nil {
		d.OnResult(result, err)
	}
	if err != nil {
		logi.Ctx(ctx).Error("trigger: run failed", "name", d.Name, "error", err)
		return err
	}
	return nil
}
