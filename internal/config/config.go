package config

import "strings"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Extraction ExtractionConfig `mapstructure:"extraction" validate:"required"`
	Tracker    TrackerConfig    `mapstructure:"tracker" validate:"required"`
	Mail       MailConfig       `mapstructure:"mail" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains settings for the API's bearer-token authentication.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ExtractionConfig contains the extraction gateway and provider settings.
// Exactly one provider is active; its API key is required.
type ExtractionConfig struct {
	Provider     string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	GeminiModel  string `mapstructure:"gemini_model" validate:"required_if=Provider gemini"`
	OpenAIAPIKey string `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	OpenAIModel  string `mapstructure:"openai_model" validate:"required_if=Provider openai"`

	// TimeoutSeconds bounds one extraction call; on expiry the item is
	// routed to human review rather than treated as a failure.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`

	// MaxBodyRunes truncates email bodies before they reach the extractor.
	MaxBodyRunes int `mapstructure:"max_body_runes" validate:"required,gt=0"`

	// ForbiddenEnvVars is a comma-separated list of environment variable
	// names that must not be set while the pipeline runs. Detection of any
	// of them is a fatal environment error.
	ForbiddenEnvVars string `mapstructure:"forbidden_env_vars"`
}

// ForbiddenList returns the parsed ForbiddenEnvVars names.
func (c ExtractionConfig) ForbiddenList() []string {
	if c.ForbiddenEnvVars == "" {
		return nil
	}
	parts := strings.Split(c.ForbiddenEnvVars, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// TrackerConfig contains the task tracker client settings.
type TrackerConfig struct {
	APIToken string `mapstructure:"api_token" validate:"required"`
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
}

// MailConfig contains the mail source settings. The OAuth flow that writes
// the credential row runs outside this process; ReauthURL is where the
// operator is sent when that credential is missing or rejected.
type MailConfig struct {
	ReauthURL string `mapstructure:"reauth_url" validate:"required,url"`

	// ProcessedLabelID is the source-side label applied to handled items.
	// Empty means handled items are only unstarred.
	ProcessedLabelID string `mapstructure:"processed_label_id"`
}

// SchedulerConfig contains the scheduler timing settings.
type SchedulerConfig struct {
	IntervalSeconds     int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	WarmupDelaySeconds  int `mapstructure:"warmup_delay_seconds" validate:"required,gt=0"`

	// MaxResults bounds the batch fetched at the start of each cycle.
	MaxResults int `mapstructure:"max_results" validate:"required,gt=0"`
}
