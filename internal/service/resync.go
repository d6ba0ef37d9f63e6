package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const resyncTimeout = 30 * time.Second

// Refresher перерисовывает дашборды.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Resync периодически перерисовывает дашборды, чтобы частично обновлённые
// сообщения не ждали следующей команды.
type Resync struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewResync регистрирует задачу по cron-расписанию (например, "*/15 * * * *" или "@every 10m").
func NewResync(schedule string, refresher Refresher, logger *slog.Logger) (*Resync, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
		defer cancel()
		if err := refresher.Refresh(ctx); err != nil {
			logger.Error("Scheduled dashboard refresh failed", "error", err)
			return
		}
		logger.Debug("Scheduled dashboard refresh done")
	})
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	return &Resync{cron: c, logger: logger}, nil
}

func (r *Resync) Start() {
	r.cron.Start()
	r.logger.Info("Dashboard resync scheduled")
}

// Stop останавливает планировщик и ждёт текущий запуск.
func (r *Resync) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}
