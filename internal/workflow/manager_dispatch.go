package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"stocksmith/internal/ingest"
	"stocksmith/internal/logging"
	"stocksmith/internal/queue"
	"stocksmith/internal/services"
	"stocksmith/internal/services/metadata"
)

// missingFromResponseMessage marks items the model response skipped.
const missingFromResponseMessage = "Item missing from batch response"

// dispatchPass fills free batch slots with unclaimed pending items until
// capacity or the pending set runs out. Claims are taken before the
// processing transition is written, so a wake-up racing with a finishing
// batch can never dispatch an item twice.
func (m *Manager) dispatchPass(ctx context.Context) {
	for ctx.Err() == nil {
		if !m.slots.TryAcquire(1) {
			return
		}
		batch, err := m.claimNextBatch(ctx)
		if err != nil {
			m.slots.Release(1)
			m.setLastError(err)
			m.logger.Error("failed to fetch pending work items",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			return
		}
		if len(batch) == 0 {
			m.slots.Release(1)
			return
		}
		if err := m.markProcessing(ctx, batch); err != nil {
			m.releaseClaims(batch)
			m.slots.Release(1)
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to mark batch processing",
				logging.Error(err),
				logging.Int("batch_items", len(batch)),
				logging.String(logging.FieldEventType, "batch_dispatch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			return
		}
		m.noteRunStarted(ctx)
		m.batchWG.Add(1)
		go m.executeBatch(ctx, batch)
	}
}

// claimNextBatch picks the oldest pending items not already claimed by an
// in-flight batch, up to the batch size, and records their ids in the claim
// set.
func (m *Manager) claimNextBatch(ctx context.Context) ([]*queue.Item, error) {
	pending, err := m.store.ItemsByStatus(ctx, queue.StatusPending)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	m.claimsMu.Lock()
	defer m.claimsMu.Unlock()
	batch := make([]*queue.Item, 0, m.batchSize)
	for _, item := range pending {
		if len(batch) == m.batchSize {
			break
		}
		if _, taken := m.claims[item.ID]; taken {
			continue
		}
		m.claims[item.ID] = struct{}{}
		batch = append(batch, item)
	}
	return batch, nil
}

func (m *Manager) releaseClaims(batch []*queue.Item) {
	m.claimsMu.Lock()
	for _, item := range batch {
		delete(m.claims, item.ID)
	}
	m.claimsMu.Unlock()
}

func (m *Manager) claimedCount() int {
	m.claimsMu.Lock()
	defer m.claimsMu.Unlock()
	return len(m.claims)
}

// markProcessing writes the processing transition for the whole batch in one
// transaction. On failure the in-memory statuses are restored so the items
// stay eligible for a later pass.
func (m *Manager) markProcessing(ctx context.Context, batch []*queue.Item) error {
	for _, item := range batch {
		item.Status = queue.StatusProcessing
		item.ErrorMessage = ""
	}
	if err := m.store.UpdateAll(ctx, batch); err != nil {
		for _, item := range batch {
			item.Status = queue.StatusPending
		}
		return err
	}
	return nil
}

// executeBatch runs one generation call and settles the outcome. The
// deadline applies to the call only; settlement writes use the run context
// so results from a timed-out call can still be recorded as errors.
func (m *Manager) executeBatch(ctx context.Context, batch []*queue.Item) {
	defer m.batchWG.Done()
	defer m.slots.Release(1)
	defer m.releaseClaims(batch)

	bctx := services.WithBatchID(ctx, uuid.NewString())
	logger := logging.WithContext(bctx, m.logger)

	requests := make([]metadata.Request, len(batch))
	for i, item := range batch {
		requests[i] = metadata.Request{
			ID:          strconv.FormatInt(item.ID, 10),
			Description: item.Description,
		}
	}

	logger.Info("batch dispatched",
		logging.Int("batch_items", len(batch)),
		logging.String("lead_item", ingest.DisplayLabel(batch[0].Filename)),
		logging.String(logging.FieldEventType, "batch_dispatched"),
	)

	callCtx, cancel := context.WithTimeout(bctx, m.batchTimeout)
	defer cancel()

	started := time.Now()
	results, err := m.generator.GenerateBatch(callCtx, requests)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("batch abandoned during shutdown", logging.Error(err))
			return
		}
		m.failBatch(bctx, logger, batch, err)
		return
	}
	m.mergeBatch(bctx, logger, batch, results, time.Since(started))
}

// mergeBatch settles a successful generation call: items the response named
// complete with their metadata, items it skipped become errors. The merge
// lands in one transaction so readers never observe a half-settled batch.
func (m *Manager) mergeBatch(ctx context.Context, logger *slog.Logger, batch []*queue.Item, results []metadata.Result, elapsed time.Duration) {
	byID := make(map[string]metadata.Result, len(results))
	for _, result := range results {
		byID[result.ID] = result
	}

	completed := 0
	missing := 0
	for _, item := range batch {
		result, ok := byID[strconv.FormatInt(item.ID, 10)]
		if !ok {
			item.SetError(missingFromResponseMessage)
			missing++
			continue
		}
		item.SetCompleted(result.Title, result.Keywords, result.Category)
		completed++
	}

	if err := m.store.UpdateAll(ctx, batch); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutdown before batch results could be stored")
			return
		}
		m.setLastError(err)
		logger.Error("failed to persist batch results",
			logging.Error(err),
			logging.String(logging.FieldEventType, "batch_persist_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		return
	}

	logger.Info("batch completed",
		logging.Int("completed", completed),
		logging.Int("missing", missing),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldEventType, "batch_completed"),
	)
	if missing > 0 {
		logger.Warn("response skipped requested items; marked as errors",
			logging.Int("missing", missing),
			logging.String(logging.FieldEventType, "batch_partial_response"),
			logging.String(logging.FieldErrorHint, "model omitted requested ids"),
			logging.String(logging.FieldImpact, "skipped items need another run"),
		)
	}
}
