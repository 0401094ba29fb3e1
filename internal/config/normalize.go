package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenRouter()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenRouter() {
	c.OpenRouter.APIKey = strings.TrimSpace(c.OpenRouter.APIKey)
	if c.OpenRouter.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.OpenRouter.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenRouter.BaseURL = strings.TrimSpace(c.OpenRouter.BaseURL)
	if c.OpenRouter.BaseURL == "" {
		c.OpenRouter.BaseURL = defaultOpenRouterBaseURL
	}
	c.OpenRouter.Model = strings.TrimSpace(c.OpenRouter.Model)
	if c.OpenRouter.Model == "" {
		c.OpenRouter.Model = defaultOpenRouterModel
	}
	c.OpenRouter.Referer = strings.TrimSpace(c.OpenRouter.Referer)
	if c.OpenRouter.Referer == "" {
		c.OpenRouter.Referer = defaultOpenRouterReferer
	}
	c.OpenRouter.Title = strings.TrimSpace(c.OpenRouter.Title)
	if c.OpenRouter.Title == "" {
		c.OpenRouter.Title = defaultOpenRouterTitle
	}
	if c.OpenRouter.TimeoutSeconds <= 0 {
		c.OpenRouter.TimeoutSeconds = defaultOpenRouterTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.BatchSize <= 0 {
		c.Workflow.BatchSize = DefaultBatchSize
	}
	if c.Workflow.MaxConcurrentBatches <= 0 {
		c.Workflow.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}
	if c.Workflow.BatchTimeoutSeconds <= 0 {
		c.Workflow.BatchTimeoutSeconds = DefaultBatchTimeoutSeconds
	}
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
