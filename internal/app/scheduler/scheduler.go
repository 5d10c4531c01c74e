package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/creditd/internal/app/service/settlement"
	cfgpkg "github.com/fatflowers/creditd/pkg/config"
)

// register wires the monthly settlement job into a cron runner tied to the
// fx lifecycle. The default schedule fires once per UTC month; extra triggers
// are safe
// because the job is idempotent.
func register(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config, svc *settlement.Service) error {
	c := cron.New(cron.WithLocation(time.UTC))

	entryID, err := c.AddFunc(cfg.Job.CronSpec, func() {
		svc.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid job cron spec %q: %w", cfg.Job.CronSpec, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			l.Infow("settlement scheduler started", "cron_spec", cfg.Job.CronSpec, "entry_id", entryID)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
				l.Infow("settlement scheduler stopped")
			case <-ctx.Done():
				l.Warnw("timed out waiting for running settlement job")
			}
			return nil
		},
	})
	return nil
}

var Module = fx.Options(
	fx.Invoke(register),
)
