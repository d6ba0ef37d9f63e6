package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/wrongjunior/eventboard/internal/metrics"
)

// Runner выполняет фоновые задачи отложенных ответов. Вызывающий не ждёт их завершения.
type Runner struct {
	wg     sync.WaitGroup
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunner создаёт новый экземпляр исполнителя.
func NewRunner(logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go запускает задачу в отдельной горутине. Паника внутри задачи перехватывается и логируется.
func (r *Runner) Go(name string, task func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				metrics.ObserveDeferredTask("panic")
				r.logger.Error("Background task panicked", "task", name, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			}
		}()
		task(r.ctx)
		metrics.ObserveDeferredTask("done")
		r.logger.Debug("Background task finished", "task", name)
	}()
}

// Shutdown ждёт завершения задач до дедлайна ctx, после чего отменяет оставшиеся.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("Runner shutdown")
		return nil
	case <-ctx.Done():
		r.cancel()
		r.logger.Warn("Runner shutdown timed out, cancelling background tasks")
		return ctx.Err()
	}
}
