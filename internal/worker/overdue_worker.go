package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"todolist/internal/events"
	"todolist/internal/logger"
	"todolist/internal/repository"
	"todolist/internal/service"
)

// OverdueWorker periodically scans for past-due, non-completed todos and
// publishes a relay event so the gateway can warn the room. It never
// mutates records.
type OverdueWorker struct {
	repo      repository.TodoRepository
	relay     service.Publisher
	interval  time.Duration
	batchSize int
}

func NewOverdueWorker(repo repository.TodoRepository, relay service.Publisher, interval time.Duration, batchSize int) *OverdueWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OverdueWorker{
		repo:      repo,
		relay:     relay,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: overdue scan started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: overdue scan stopping")
			return
		}
	}
}

func (w *OverdueWorker) Check(ctx context.Context) {
	start := time.Now()

	todos, err := w.repo.ListDueBefore(ctx, time.Now(), w.batchSize)
	if err != nil {
		logger.Warn("Worker: overdue scan failed", zap.Error(err))
		return
	}

	if len(todos) > 0 {
		w.relay.Publish(events.TodoOverdue, events.OverduePayload{Todos: todos})
	}

	logger.Info("Worker: overdue scan finished",
		zap.Duration("ms", time.Since(start)),
		zap.Int("overdue", len(todos)))
}
