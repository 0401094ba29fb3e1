package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stocksmith/internal/logging"
	"stocksmith/internal/queue"
)

// failBatch marks every item in a failed batch with the same error message.
// Other in-flight batches and undispatched pending items are unaffected.
func (m *Manager) failBatch(ctx context.Context, logger *slog.Logger, batch []*queue.Item, callErr error) {
	message := m.classifyBatchFailure(callErr)
	for _, item := range batch {
		item.SetError(message)
	}

	logger.Error("batch failed",
		logging.Error(callErr),
		logging.Int("batch_items", len(batch)),
		logging.String("error_message", message),
		logging.Alert("batch_failure"),
		logging.String(logging.FieldEventType, "batch_failure"),
	)

	if err := m.store.UpdateAll(ctx, batch); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutdown before batch failure could be stored")
		} else {
			m.setLastError(err)
			logger.Error("failed to persist batch failure", logging.Error(err))
		}
		return
	}

	m.notifyBatchError(ctx, fmt.Sprintf("metadata batch (%d items)", len(batch)), callErr)
}

// classifyBatchFailure turns a generation error into the message stored on
// each affected item. Deadline expiry gets a fixed timeout message so the
// configured limit is visible in status output.
func (m *Manager) classifyBatchFailure(callErr error) string {
	if errors.Is(callErr, context.DeadlineExceeded) {
		return fmt.Sprintf("Batch timed out after %s", m.batchTimeout)
	}
	message := strings.TrimSpace(callErr.Error())
	if message == "" {
		message = "batch generation failed without error detail"
	}
	return message
}
