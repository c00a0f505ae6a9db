package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"api.timeout_seconds":           c.API.TimeoutSeconds,
		"api.read_retry_attempts":       c.API.ReadRetryAttempts,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.failure_history":      c.Workflow.FailureHistory,
	})
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.Reconcile {
	case ReconcileAssociations, ReconcileAlways, ReconcileNever:
	default:
		return fmt.Errorf("workflow.reconcile must be one of %q, %q, %q (got %q)",
			ReconcileAssociations, ReconcileAlways, ReconcileNever, c.Workflow.Reconcile)
	}
	return nil
}

func (c *Config) validateTracing() error {
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
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
