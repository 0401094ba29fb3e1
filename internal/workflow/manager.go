package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"stocksmith/internal/config"
	"stocksmith/internal/logging"
	"stocksmith/internal/notifications"
	"stocksmith/internal/queue"
	"stocksmith/internal/services/metadata"
)

// Generator produces stock metadata for a batch of prompts. The production
// implementation is the OpenRouter client in services/metadata.
type Generator interface {
	GenerateBatch(ctx context.Context, requests []metadata.Request) ([]metadata.Result, error)
}

// Manager coordinates batch dispatch and settlement for loaded work items.
type Manager struct {
	store     *queue.Store
	logger    *slog.Logger
	notifier  notifications.Service
	generator Generator

	batchSize    int
	batchTimeout time.Duration
	pollInterval time.Duration

	slots *semaphore.Weighted

	claimsMu sync.Mutex
	claims   map[int64]struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	loopWG  sync.WaitGroup
	batchWG sync.WaitGroup

	runActive bool
	runStart  time.Time
}

// NewManager constructs a workflow manager backed by the configured
// OpenRouter client and notification service.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithDependencies(cfg, store, logger, generatorFromConfig(cfg), notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return NewManagerWithDependencies(cfg, store, logger, generatorFromConfig(cfg), notifier)
}

// NewManagerWithDependencies constructs a workflow manager with explicit
// generation and notification backends.
func NewManagerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, generator Generator, notifier notifications.Service) *Manager {
	batchSize := cfg.Workflow.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	maxBatches := cfg.Workflow.MaxConcurrentBatches
	if maxBatches <= 0 {
		maxBatches = config.DefaultMaxConcurrentBatches
	}
	batchTimeout := time.Duration(cfg.Workflow.BatchTimeoutSeconds) * time.Second
	if batchTimeout <= 0 {
		batchTimeout = time.Duration(config.DefaultBatchTimeoutSeconds) * time.Second
	}
	pollInterval := time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Duration(config.DefaultPollIntervalSeconds) * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		notifier:     notifier,
		generator:    generator,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		pollInterval: pollInterval,
		slots:        semaphore.NewWeighted(int64(maxBatches)),
		claims:       make(map[int64]struct{}),
		done:         make(chan struct{}),
	}
}

func generatorFromConfig(cfg *config.Config) *metadata.Client {
	rc := cfg.GetOpenRouter()
	return metadata.NewClient(metadata.Config{
		APIKey:         rc.APIKey,
		BaseURL:        rc.BaseURL,
		Model:          rc.Model,
		Referer:        rc.Referer,
		Title:          rc.Title,
		TimeoutSeconds: rc.TimeoutSeconds,
	})
}
