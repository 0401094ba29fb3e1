package workflow_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"stocksmith/internal/logging"
	"stocksmith/internal/notifications"
	"stocksmith/internal/queue"
	"stocksmith/internal/services/metadata"
	"stocksmith/internal/testsupport"
	"stocksmith/internal/workflow"
)

type scriptedGenerator struct {
	mu      sync.Mutex
	batches [][]string

	// gate, when set, blocks every call until the channel closes or the
	// call context ends.
	gate    chan struct{}
	respond func(ctx context.Context, requests []metadata.Request) ([]metadata.Result, error)
}

func (g *scriptedGenerator) GenerateBatch(ctx context.Context, requests []metadata.Request) ([]metadata.Result, error) {
	ids := make([]string, len(requests))
	for i, request := range requests {
		ids[i] = request.ID
	}
	g.mu.Lock()
	g.batches = append(g.batches, ids)
	g.mu.Unlock()

	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.respond != nil {
		return g.respond(ctx, requests)
	}
	return answerAll(requests), nil
}

func (g *scriptedGenerator) recordedBatches() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]string, len(g.batches))
	for i, ids := range g.batches {
		out[i] = append([]string(nil), ids...)
	}
	return out
}

func answerAll(requests []metadata.Request) []metadata.Result {
	results := make([]metadata.Result, len(requests))
	for i, request := range requests {
		results[i] = metadata.Result{
			ID:       request.ID,
			Title:    "Title " + request.ID,
			Keywords: "stock, photo",
			Category: "Landscapes",
		}
	}
	return results
}

func batchContains(requests []metadata.Request, id string) bool {
	for _, request := range requests {
		if request.ID == id {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) recorded() ([]notifications.Event, []notifications.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	events := append([]notifications.Event(nil), n.events...)
	payloads := append([]notifications.Payload(nil), n.payloads...)
	return events, payloads
}

func itemID(item *queue.Item) string {
	return strconv.FormatInt(item.ID, 10)
}

func waitForDone(t *testing.T, mgr *workflow.Manager, timeout time.Duration) {
	t.Helper()
	select {
	case <-mgr.Done():
	case <-time.After(timeout):
		t.Fatal("timed out waiting for run completion")
	}
}

func waitForStats(t *testing.T, store *queue.Store, want func(map[queue.Status]int) bool) {
	t.Helper()
	deadline := time.After(20 * time.Second)
	for {
		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if want(stats) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for queue stats, last seen %v", stats)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerDispatchesPendingItemsInWaves(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBatchSize(5),
		testsupport.WithMaxConcurrentBatches(4),
	)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 12)

	gen := &scriptedGenerator{gate: make(chan struct{})}
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	// Capacity covers all twelve items, so every item transitions to
	// processing while the generator is still blocked.
	waitForStats(t, store, func(stats map[queue.Status]int) bool {
		return stats[queue.StatusProcessing] == 12
	})

	status := mgr.Status(ctx)
	if !status.Running {
		t.Fatal("expected manager to report running")
	}
	if status.InFlightItems != 12 {
		t.Fatalf("expected 12 claimed items, got %d", status.InFlightItems)
	}

	sizes := make([]int, 0, 3)
	for _, ids := range gen.recordedBatches() {
		sizes = append(sizes, len(ids))
	}
	sort.Ints(sizes)
	if len(sizes) != 3 || sizes[0] != 2 || sizes[1] != 5 || sizes[2] != 5 {
		t.Fatalf("expected batch sizes [2 5 5], got %v", sizes)
	}

	close(gen.gate)
	waitForDone(t, mgr, 30*time.Second)

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, item := range items {
		if item.Status != queue.StatusCompleted {
			t.Fatalf("item %d status = %s, want completed", item.ID, item.Status)
		}
		if item.Title == "" || item.Keywords != "stock, photo" || item.Category != "Landscapes" {
			t.Fatalf("item %d metadata not applied: %+v", item.ID, item)
		}
	}

	events, payloads := notifier.recorded()
	if len(events) == 0 || events[0] != notifications.EventRunStarted {
		t.Fatalf("expected run start notification first, got %v", events)
	}
	if count, ok := payloads[0]["count"].(int); !ok || count != 12 {
		t.Fatalf("run start payload count = %v", payloads[0]["count"])
	}
	starts := 0
	for _, event := range events {
		if event == notifications.EventRunStarted {
			starts++
		}
	}
	if starts != 1 {
		t.Fatalf("expected one run start notification, got %d", starts)
	}
	last := len(events) - 1
	if events[last] != notifications.EventRunCompleted {
		t.Fatalf("expected run completion notification last, got %v", events)
	}
	if processed, ok := payloads[last]["processed"].(int); !ok || processed != 12 {
		t.Fatalf("run completion payload processed = %v", payloads[last]["processed"])
	}
	if failed, ok := payloads[last]["failed"].(int); !ok || failed != 0 {
		t.Fatalf("run completion payload failed = %v", payloads[last]["failed"])
	}
}

func TestManagerIsolatesFailedBatches(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBatchSize(5),
		testsupport.WithMaxConcurrentBatches(4),
	)
	store := testsupport.MustOpenStore(t, cfg)
	items := testsupport.SeedItems(t, store, 10)
	poisoned := itemID(items[0])

	gen := &scriptedGenerator{
		respond: func(_ context.Context, requests []metadata.Request) ([]metadata.Result, error) {
			if batchContains(requests, poisoned) {
				return nil, errors.New("upstream unavailable")
			}
			return answerAll(requests), nil
		},
	}
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 30*time.Second)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusCompleted] != 5 || stats[queue.StatusError] != 5 {
		t.Fatalf("expected 5 completed and 5 errored, got %v", stats)
	}

	errored, err := store.ItemsByStatus(context.Background(), queue.StatusError)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	for _, item := range errored {
		if item.ErrorMessage != "upstream unavailable" {
			t.Fatalf("item %d error = %q", item.ID, item.ErrorMessage)
		}
		if item.Title != "" || item.Keywords != "" {
			t.Fatalf("item %d kept stale metadata after failure", item.ID)
		}
	}

	events, _ := notifier.recorded()
	sawBatchError := false
	for _, event := range events {
		if event == notifications.EventBatchError {
			sawBatchError = true
		}
	}
	if !sawBatchError {
		t.Fatalf("expected batch error notification, got %v", events)
	}
	if events[len(events)-1] != notifications.EventRunCompleted {
		t.Fatalf("expected run to complete despite batch failure, got %v", events)
	}
}

func TestManagerMarksItemsMissingFromResponse(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(5))
	store := testsupport.MustOpenStore(t, cfg)
	items := testsupport.SeedItems(t, store, 5)
	skipped := itemID(items[2])

	gen := &scriptedGenerator{
		respond: func(_ context.Context, requests []metadata.Request) ([]metadata.Result, error) {
			results := make([]metadata.Result, 0, len(requests))
			for _, result := range answerAll(requests) {
				if result.ID == skipped {
					continue
				}
				results = append(results, result)
			}
			return results, nil
		},
	}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 30*time.Second)

	refreshed, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, item := range refreshed {
		if itemID(item) == skipped {
			if item.Status != queue.StatusError {
				t.Fatalf("skipped item status = %s, want error", item.Status)
			}
			if item.ErrorMessage != "Item missing from batch response" {
				t.Fatalf("skipped item error = %q", item.ErrorMessage)
			}
			continue
		}
		if item.Status != queue.StatusCompleted {
			t.Fatalf("item %d status = %s, want completed", item.ID, item.Status)
		}
	}
}

func TestManagerTimesOutStuckBatches(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBatchSize(5),
		testsupport.WithMaxConcurrentBatches(4),
		testsupport.WithBatchTimeoutSeconds(1),
	)
	store := testsupport.MustOpenStore(t, cfg)
	items := testsupport.SeedItems(t, store, 7)
	stuck := itemID(items[0])

	gen := &scriptedGenerator{
		respond: func(ctx context.Context, requests []metadata.Request) ([]metadata.Result, error) {
			if batchContains(requests, stuck) {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return answerAll(requests), nil
		},
	}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 30*time.Second)

	refreshed, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	timedOut := 0
	completed := 0
	for _, item := range refreshed {
		switch item.Status {
		case queue.StatusError:
			if item.ErrorMessage != "Batch timed out after 1s" {
				t.Fatalf("item %d error = %q", item.ID, item.ErrorMessage)
			}
			timedOut++
		case queue.StatusCompleted:
			completed++
		default:
			t.Fatalf("item %d left in status %s", item.ID, item.Status)
		}
	}
	if timedOut != 5 || completed != 2 {
		t.Fatalf("expected 5 timed out and 2 completed, got %d and %d", timedOut, completed)
	}
}

func TestManagerDispatchesEachItemExactlyOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBatchSize(5),
		testsupport.WithMaxConcurrentBatches(4),
	)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 23)

	gen := &scriptedGenerator{}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 30*time.Second)

	seen := make(map[string]int)
	for _, ids := range gen.recordedBatches() {
		if len(ids) > 5 {
			t.Fatalf("batch exceeded configured size: %v", ids)
		}
		for _, id := range ids {
			seen[id]++
		}
	}
	if len(seen) != 23 {
		t.Fatalf("expected 23 distinct dispatched items, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("item %s dispatched %d times", id, count)
		}
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusCompleted] != 23 {
		t.Fatalf("expected all items completed, got %v", stats)
	}
}

func TestManagerReportsMissingCredential(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIKey(""))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 3)

	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), metadata.NewClient(metadata.Config{}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 30*time.Second)

	errored, err := store.ItemsByStatus(context.Background(), queue.StatusError)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(errored) != 3 {
		t.Fatalf("expected 3 errored items, got %d", len(errored))
	}
	for _, item := range errored {
		if item.ErrorMessage != "metadata generate: api key required" {
			t.Fatalf("item %d error = %q", item.ID, item.ErrorMessage)
		}
	}
}

func TestManagerStopLeavesInFlightItemsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(5))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 5)

	gen := &scriptedGenerator{gate: make(chan struct{})}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStats(t, store, func(stats map[queue.Status]int) bool {
		return stats[queue.StatusProcessing] == 5
	})

	mgr.Stop()

	select {
	case <-mgr.Done():
	default:
		t.Fatal("expected Done to be closed after Stop")
	}

	// Cancellation abandons the in-flight call without writing statuses;
	// items stay processing rather than being marked as errors.
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusProcessing] != 5 || stats[queue.StatusError] != 0 {
		t.Fatalf("expected 5 items left processing, got %v", stats)
	}
}

func TestManagerCompletesImmediatelyWhenStoreEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), &scriptedGenerator{}, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	waitForDone(t, mgr, 10*time.Second)

	events, _ := notifier.recorded()
	if len(events) != 0 {
		t.Fatalf("expected no notifications for an empty store, got %v", events)
	}
}

func TestManagerStartWhileRunningFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 2)

	gen := &scriptedGenerator{gate: make(chan struct{})}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	if err := mgr.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail while running")
	}
}

func TestManagerRunsAgainAfterCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedItems(t, store, 2)

	gen := &scriptedGenerator{}
	mgr := workflow.NewManagerWithDependencies(cfg, store, logging.NewNop(), gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForDone(t, mgr, 30*time.Second)
	mgr.Stop()

	testsupport.SeedItems(t, store, 3)
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)
	waitForDone(t, mgr, 30*time.Second)

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusCompleted] != 3 {
		t.Fatalf("expected 3 completed items after second run, got %v", stats)
	}
}
