package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Chat validation
	if c.Chat.MaxHistory < 1 {
		errs = append(errs, "chat.max_history must be >= 1")
	}
	if c.Chat.Model == "" {
		errs = append(errs, "chat.model must not be empty")
	}

	// Provider validation
	if c.Provider.Host == "" {
		errs = append(errs, "provider.host must not be empty")
	}
	if c.Provider.RequestTimeout < 1 {
		errs = append(errs, "provider.request_timeout must be >= 1")
	}
	if c.Provider.RetryAttempts < 1 {
		errs = append(errs, "provider.retry_attempts must be >= 1")
	}
	if len(c.Provider.Models) == 0 {
		errs = append(errs, "provider.models must define at least one model")
	}

	// Semantic validation: the selected model must have options configured
	if c.Chat.Model != "" {
		if _, ok := c.Provider.Models[c.Chat.Model]; !ok {
			errs = append(errs, fmt.Sprintf("chat.model %q has no entry in provider.models", c.Chat.Model))
		}
	}
	for name, opts := range c.Provider.Models {
		if opts.ContextSize < 1 {
			errs = append(errs, fmt.Sprintf("provider.models[%s].num_ctx must be >= 1", name))
		}
	}

	// Tools validation
	if c.Tools.CommandTimeout < 1 {
		errs = append(errs, "tools.command_timeout must be >= 1")
	}
	if c.Tools.MaxCommandOutput < 1 {
		errs = append(errs, "tools.max_command_output must be >= 1")
	}
	if c.Tools.GracefulShutdownMs < 1 {
		errs = append(errs, "tools.graceful_shutdown_ms must be >= 1")
	}
	if c.Tools.SearchTimeout < 1 {
		errs = append(errs, "tools.search_timeout must be >= 1")
	}
	if c.Tools.SearchResultCount < 1 {
		errs = append(errs, "tools.search_result_count must be >= 1")
	}
	switch c.Tools.ElevationTool {
	case "pkexec", "kdesu", "gksu":
	default:
		errs = append(errs, fmt.Sprintf("tools.elevation_tool %q is not supported (pkexec, kdesu, gksu)", c.Tools.ElevationTool))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
