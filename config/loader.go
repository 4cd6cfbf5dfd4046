package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hupe1980/agentcrew/routing"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "AGENTCREW",
	}
}

// WithConfigFile sets an explicit config file path, skipping the search paths.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. Environment variables (AGENTCREW_*)
// 2. Project config (.agentcrew.yaml in the current directory)
// 3. User config (~/.config/agentcrew/.agentcrew.yaml)
// 4. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".agentcrew")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config.
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "agentcrew"))
		}
	}

	// A missing config file is fine, the defaults and environment carry it.
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "json")
	l.v.SetDefault("log.add_source", false)

	l.v.SetDefault("model.provider", ProviderMock)
	l.v.SetDefault("model.name", "")
	l.v.SetDefault("model.temperature", 0.7)
	l.v.SetDefault("model.max_tokens", 4096)
	l.v.SetDefault("model.api_key", "")

	l.v.SetDefault("routing.max_retry_attempts", routing.DefaultMaxAttempts)
	l.v.SetDefault("routing.retry_backoff_base", routing.DefaultBackoffBase)
	l.v.SetDefault("routing.breaker_threshold", routing.DefaultBreakerThreshold)
	l.v.SetDefault("routing.breaker_cooldown", routing.DefaultBreakerCooldown)

	l.v.SetDefault("supervisor.max_concurrent_executions", 0)

	l.v.SetDefault("session.backend", BackendMemory)
	l.v.SetDefault("session.sqlite_path", "")

	l.v.SetDefault("notify.event_buffer_size", 64)

	l.v.SetDefault("telemetry.endpoint", "")
	l.v.SetDefault("telemetry.service_name", "agentcrew")
}
