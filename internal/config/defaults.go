package config

const (
	defaultDataDir   = "~/.local/share/stocksmith"
	defaultExportDir = "~/.local/share/stocksmith/exports"
	defaultLogDir    = "~/.local/share/stocksmith/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultOpenRouterBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel          = "google/gemini-2.5-flash"
	defaultOpenRouterReferer        = "https://github.com/stocksmith/stocksmith"
	defaultOpenRouterTitle          = "Stocksmith Metadata Generator"
	defaultOpenRouterTimeoutSeconds = 60

	defaultNotifyRequestTimeout = 10
)

// Batch scheduling defaults. Five descriptions per request keeps prompts well
// inside model context limits, and four concurrent batches keeps at most
// twenty generations in flight.
const (
	DefaultBatchSize            = 5
	DefaultMaxConcurrentBatches = 4
	DefaultBatchTimeoutSeconds  = 45
	DefaultPollIntervalSeconds  = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
		},
		OpenRouter: OpenRouter{
			BaseURL:        defaultOpenRouterBaseURL,
			Model:          defaultOpenRouterModel,
			Referer:        defaultOpenRouterReferer,
			Title:          defaultOpenRouterTitle,
			TimeoutSeconds: defaultOpenRouterTimeoutSeconds,
		},
		Workflow: Workflow{
			BatchSize:            DefaultBatchSize,
			MaxConcurrentBatches: DefaultMaxConcurrentBatches,
			BatchTimeoutSeconds:  DefaultBatchTimeoutSeconds,
			PollIntervalSeconds:  DefaultPollIntervalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
