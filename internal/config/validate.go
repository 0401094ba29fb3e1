package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
//
// The OpenRouter API key is intentionally not checked here: commands that
// never generate metadata must work without credentials, and the scheduler
// reports a missing key per item at generation time.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateOpenRouter(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.batch_size":             c.Workflow.BatchSize,
		"workflow.max_concurrent_batches": c.Workflow.MaxConcurrentBatches,
		"workflow.batch_timeout_seconds":  c.Workflow.BatchTimeoutSeconds,
		"workflow.poll_interval_seconds":  c.Workflow.PollIntervalSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.BatchSize > 50 {
		return errors.New("workflow.batch_size must be 50 or fewer descriptions per request")
	}
	return nil
}

func (c *Config) validateOpenRouter() error {
	if c.OpenRouter.Model == "" {
		return errors.New("openrouter.model must be set")
	}
	if c.OpenRouter.TimeoutSeconds <= 0 {
		return errors.New("openrouter.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
