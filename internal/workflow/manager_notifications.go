package workflow

import (
	"context"
	"errors"
	"time"

	"stocksmith/internal/logging"
	"stocksmith/internal/notifications"
	"stocksmith/internal/queue"
)

// noteRunStarted records the start of a run on the first dispatched batch
// and fires the run-start notification once.
func (m *Manager) noteRunStarted(ctx context.Context) {
	m.mu.Lock()
	if m.runActive {
		m.mu.Unlock()
		return
	}
	m.runActive = true
	m.runStart = time.Now()
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutdown in progress, could not get stats for run start notification")
		} else {
			m.logger.Warn("stats unavailable for run start notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "run start notification will not be sent"),
			)
		}
		return
	}

	count := countActiveItems(stats)
	m.logger.Info("run started",
		logging.Int("count", count),
		logging.String(logging.FieldEventType, "run_started"),
	)
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventRunStarted, notifications.Payload{"count": count}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutdown in progress, could not send run start notification")
		} else {
			m.logger.Debug("run start notification failed", logging.Error(err))
		}
	}
}

// checkRunCompletion reports whether every loaded item is terminal. An empty
// store counts as complete. The completion notification fires once per run
// with totals and elapsed time.
func (m *Manager) checkRunCompletion(ctx context.Context) bool {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutdown in progress, could not check run completion")
		} else {
			m.logger.Warn("stats unavailable for completion check",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		return false
	}
	if countActiveItems(stats) > 0 {
		return false
	}

	m.mu.Lock()
	active := m.runActive
	start := m.runStart
	m.runActive = false
	m.runStart = time.Time{}
	m.mu.Unlock()
	if !active {
		return true
	}

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	processed := stats[queue.StatusCompleted]
	failed := stats[queue.StatusError]
	m.logger.Info("run completed",
		logging.Int("processed", processed),
		logging.Int("failed", failed),
		logging.Duration("duration", duration),
		logging.String(logging.FieldEventType, "run_completed"),
	)
	if m.notifier == nil {
		return true
	}
	if err := m.notifier.Publish(ctx, notifications.EventRunCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
		"duration":  duration,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutdown in progress, could not send run completion notification")
		} else {
			m.logger.Debug("run completion notification failed", logging.Error(err))
		}
	}
	return true
}

func (m *Manager) notifyBatchError(ctx context.Context, contextLabel string, batchErr error) {
	if m.notifier == nil || batchErr == nil {
		return
	}
	logger := logging.WithContext(ctx, m.logger)
	if err := m.notifier.Publish(ctx, notifications.EventBatchError, notifications.Payload{
		"error":   batchErr,
		"context": contextLabel,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutdown in progress, could not send batch error notification")
		} else {
			logger.Debug("batch error notification failed", logging.Error(err))
		}
	}
}

func countActiveItems(stats map[queue.Status]int) int {
	total := 0
	for status, count := range stats {
		if status.IsTerminal() {
			continue
		}
		total += count
	}
	return total
}
