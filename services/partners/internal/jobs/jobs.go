// Package jobs runs the partners service housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
)

const (
	cartSweepSpec = "@every 15m"
	jobTimeout    = time.Minute
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Runner struct {
	Repo    *repo.GormRepo
	Devices devices.Dispatcher
	Logger  *slog.Logger
	CartTTL time.Duration

	sched *cron.Cron
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// SweepStaleCarts deletes carts untouched for longer than CartTTL.
func (r *Runner) SweepStaleCarts(ctx context.Context) (int64, error) {
	n, err := r.Repo.DeleteStaleCarts(ctx, time.Now().UTC().Add(-r.CartTTL))
	if err != nil {
		return 0, fmt.Errorf("sweep stale carts: %w", err)
	}
	return n, nil
}

// LowStockDigest dispatches one notification listing every low-stock SKU.
// It reports how many products were listed.
func (r *Runner) LowStockDigest(ctx context.Context) (int, error) {
	prods, err := r.Repo.LowStockProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("low stock digest: %w", err)
	}
	if len(prods) == 0 {
		return 0, nil
	}

	body := ""
	for i, p := range prods {
		if i > 0 {
			body += "\n"
		}
		body += fmt.Sprintf("%s %s: %d (min %d)", p.SKU, p.Name, p.Quantity, p.MinQuantity)
	}
	n := devices.Notification{
		Title: fmt.Sprintf("%d products low on stock", len(prods)),
		Body:  body,
		Level: "warning",
	}
	if err := r.Devices.ShowNotification(ctx, n); err != nil {
		return 0, fmt.Errorf("low stock digest: %w", err)
	}
	return len(prods), nil
}

func (r *Runner) wrap(name string, fn func(ctx context.Context) (any, error)) func() {
	return func() {
		l := r.logger().With("job", name)
		ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), l), jobTimeout)
		defer cancel()

		start := time.Now()
		res, err := fn(ctx)
		if err != nil {
			l.Error("job_failed", "error", err)
			return
		}
		l.Info("job_done", "result", res, "duration_ms", time.Since(start).Milliseconds())
	}
}

// Start schedules the jobs. lowStockSpec accepts standard cron expressions,
// optional seconds and descriptors such as @hourly.
func (r *Runner) Start(lowStockSpec string) error {
	r.sched = cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	if _, err := r.sched.AddFunc(cartSweepSpec, r.wrap("sweep_stale_carts", func(ctx context.Context) (any, error) {
		return r.SweepStaleCarts(ctx)
	})); err != nil {
		return fmt.Errorf("schedule cart sweep: %w", err)
	}
	if _, err := r.sched.AddFunc(lowStockSpec, r.wrap("low_stock_digest", func(ctx context.Context) (any, error) {
		return r.LowStockDigest(ctx)
	})); err != nil {
		return fmt.Errorf("schedule low stock digest %q: %w", lowStockSpec, err)
	}

	r.sched.Start()
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (r *Runner) Stop(ctx context.Context) {
	if r.sched == nil {
		return
	}
	select {
	case <-r.sched.Stop().Done():
	case <-ctx.Done():
	}
}
