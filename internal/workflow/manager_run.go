package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stocksmith/internal/services"
)

// Start launches the scheduling loop and returns once it is running. Callers
// observe progress through Done, Status, and the store itself.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.store == nil {
		m.mu.Unlock()
		return services.Wrap(services.ErrConfiguration, "workflow", "start", "work item store unavailable", nil)
	}
	if m.generator == nil {
		m.mu.Unlock()
		return services.Wrap(services.ErrConfiguration, "workflow", "start", "generation client not configured", nil)
	}

	runCtx, cancel := context.WithCancel(services.WithRunID(ctx, uuid.NewString()))
	m.cancel = cancel
	m.running = true
	m.done = make(chan struct{})
	done := m.done
	m.loopWG.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.loopWG.Done()
		defer cancel()
		m.runLoop(runCtx)
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		close(done)
	}()
	return nil
}

// Stop terminates processing and waits for in-flight batches to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.loopWG.Wait()
}

// Done exposes completion of the current run. The channel closes once every
// loaded item has reached a terminal status, or processing is stopped. A
// store with no items completes immediately.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// runLoop dispatches until the run completes or the context is canceled.
// Between passes it sleeps on store change signals with a poll tick as the
// backstop; every settled batch writes to the store, so settlement wakes the
// loop without waiting out the tick.
func (m *Manager) runLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		m.dispatchPass(ctx)
		if m.checkRunCompletion(ctx) {
			m.batchWG.Wait()
			return
		}
		select {
		case <-ctx.Done():
			m.batchWG.Wait()
			return
		case <-m.store.Changes():
		case <-ticker.C:
		}
	}
}
