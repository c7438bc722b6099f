package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables with the STARTASK_
// prefix (nested keys joined by underscores, e.g. STARTASK_SERVER_PORT) and
// validates the result. Returns a populated Config or an error if loading
// or validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STARTASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every known key. Registration doubles as the key
// list viper's AutomaticEnv consults during Unmarshal, so even keys without
// a meaningful default appear here with an empty value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("extraction.provider", "gemini")
	v.SetDefault("extraction.gemini_api_key", "")
	v.SetDefault("extraction.gemini_model", "gemini-2.0-flash")
	v.SetDefault("extraction.openai_api_key", "")
	v.SetDefault("extraction.openai_model", "gpt-4o-mini")
	v.SetDefault("extraction.timeout_seconds", 60)
	v.SetDefault("extraction.max_body_runes", 8000)
	v.SetDefault("extraction.forbidden_env_vars", "")

	v.SetDefault("tracker.api_token", "")
	v.SetDefault("tracker.base_url", "https://api.todoist.com/rest/v2")

	v.SetDefault("mail.reauth_url", "")
	v.SetDefault("mail.processed_label_id", "")

	v.SetDefault("scheduler.interval_seconds", 120)
	v.SetDefault("scheduler.poll_interval_seconds", 10)
	v.SetDefault("scheduler.warmup_delay_seconds", 5)
	v.SetDefault("scheduler.max_results", 25)
}
