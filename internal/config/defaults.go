package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Chat     ChatConfig     `json:"chat"`
	Provider ProviderConfig `json:"provider"`
	Tools    ToolsConfig    `json:"tools"`
}

type ChatConfig struct {
	// MaxHistory is the number of retained exchanges (one user turn plus one
	// assistant turn each). The turn count is bounded by 2*MaxHistory.
	MaxHistory int `json:"max_history"` // Default: 20

	// Model is the model identifier selected at session start.
	Model string `json:"model"` // Default: "arch-chan"
}

type ProviderConfig struct {
	// Host is the base URL of the local Ollama endpoint.
	Host string `json:"host"` // Default: "http://localhost:11434"

	// RequestTimeout bounds a single model call, in seconds.
	RequestTimeout int `json:"request_timeout"` // Default: 120

	// RetryAttempts is how many times a model call is attempted before the
	// endpoint is reported unavailable.
	RetryAttempts int `json:"retry_attempts"` // Default: 3

	// Models holds per-model sampling and context-window options, keyed by
	// model identifier. Options are opaque to the dispatch core.
	Models map[string]ModelOptions `json:"models"`
}

// ModelOptions are the sampling parameters sent with every request for a
// given model identifier.
type ModelOptions struct {
	Temperature float32 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float32 `json:"top_p"`
	ContextSize int     `json:"num_ctx"`
}

type ToolsConfig struct {
	// Command Execution
	CommandTimeout     int   `json:"command_timeout"`      // Default: 120 (seconds)
	MaxCommandOutput   int64 `json:"max_command_output"`   // Default: 1 * 1024 * 1024 (1MB)
	GracefulShutdownMs int   `json:"graceful_shutdown_ms"` // Default: 2000

	// Search
	SearchTimeout     int `json:"search_timeout"`      // Default: 30 (seconds)
	SearchResultCount int `json:"search_result_count"` // Default: 5

	// Privilege elevation
	SudoConfirm   bool   `json:"sudo_confirm"`   // Default: true
	ElevationTool string `json:"elevation_tool"` // Default: "pkexec"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			MaxHistory: 20,
			Model:      "arch-chan",
		},
		Provider: ProviderConfig{
			Host:           "http://localhost:11434",
			RequestTimeout: 120,
			RetryAttempts:  3,
			Models: map[string]ModelOptions{
				"arch-chan": {
					Temperature: 0.7,
					TopK:        40,
					TopP:        0.9,
					ContextSize: 4096,
				},
				"arch-chan-lite": {
					Temperature: 0.7,
					TopK:        40,
					TopP:        0.9,
					ContextSize: 2048,
				},
			},
		},
		Tools: ToolsConfig{
			CommandTimeout:     120,
			MaxCommandOutput:   1 * 1024 * 1024,
			GracefulShutdownMs: 2000,
			SearchTimeout:      30,
			SearchResultCount:  5,
			SudoConfirm:        true,
			ElevationTool:      "pkexec",
		},
	}
}
