// Package config loads AgentCrew settings from YAML files and AGENTCREW_*
// environment variables and turns them into ready-to-use building blocks:
// a structured logger, a session store and a model client.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/model/anthropic"
	"github.com/hupe1980/agentcrew/model/openai"
	"github.com/hupe1980/agentcrew/session"
)

// Supported model providers.
const (
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Supported session store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the root configuration for an AgentCrew deployment.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Model      ModelConfig      `mapstructure:"model"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Session    SessionConfig    `mapstructure:"session"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// ModelConfig selects and tunes the LLM provider.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	APIKey      string  `mapstructure:"api_key"`
}

// RoutingConfig tunes the retry and circuit breaker decorators applied to
// every stage route.
type RoutingConfig struct {
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts"`
	RetryBackoffBase time.Duration `mapstructure:"retry_backoff_base"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// SupervisorConfig tunes batch execution. A zero MaxConcurrentExecutions
// means unbounded.
type SupervisorConfig struct {
	MaxConcurrentExecutions int `mapstructure:"max_concurrent_executions"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// NotifyConfig tunes event fan-out.
type NotifyConfig struct {
	EventBufferSize int `mapstructure:"event_buffer_size"`
}

// TelemetryConfig points the OTLP exporters at a collector. An empty
// endpoint disables export entirely.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Validate checks the constraints the loader cannot express. It returns a
// *core.ConfigurationError so callers can branch with core.IsConfiguration.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderMock, ProviderAnthropic, ProviderOpenAI:
	default:
		return &core.ConfigurationError{Reason: fmt.Sprintf("unknown model provider %q", c.Model.Provider)}
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Session.SQLitePath == "" {
			return &core.ConfigurationError{Reason: "session.sqlite_path is required for the sqlite backend"}
		}
	default:
		return &core.ConfigurationError{Reason: fmt.Sprintf("unknown session backend %q", c.Session.Backend)}
	}

	if c.Routing.MaxRetryAttempts < 1 {
		return &core.ConfigurationError{Reason: "routing.max_retry_attempts must be at least 1"}
	}
	if c.Notify.EventBufferSize < 1 {
		return &core.ConfigurationError{Reason: "notify.event_buffer_size must be at least 1"}
	}

	return nil
}

// NewLogger builds a logger from the log section.
func (c *Config) NewLogger() *logging.CrewLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     logLevel(c.Log.Level),
		Format:    c.Log.Format,
		Output:    os.Stdout,
		AddSource: c.Log.AddSource,
		Component: "agentcrew",
	})
}

func logLevel(s string) logging.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LogLevelDebug
	case "warn", "warning":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

// NewStore builds the session store named by the session section. SQLite
// stores must be closed by the caller when the process shuts down.
func (c *Config) NewStore() (core.SessionStore, error) {
	switch c.Session.Backend {
	case BackendSQLite:
		return session.NewSQLiteStore(c.Session.SQLitePath)
	case BackendMemory:
		return session.NewInMemoryStore(), nil
	default:
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unknown session backend %q", c.Session.Backend)}
	}
}

// NewLLM builds the model client named by the model section. The mock
// provider answers every prompt without credentials or network access,
// which keeps local development and CI offline.
func (c *Config) NewLLM() (model.LLM, error) {
	switch c.Model.Provider {
	case ProviderAnthropic:
		return anthropic.New(func(o *anthropic.Options) {
			if c.Model.Name != "" {
				o.Model = anthropicsdk.Model(c.Model.Name)
			}
			o.Temperature = c.Model.Temperature
			o.MaxTokens = c.Model.MaxTokens
			o.APIKey = c.Model.APIKey
		}), nil
	case ProviderOpenAI:
		return openai.New(func(o *openai.Options) {
			if c.Model.Name != "" {
				o.Model = c.Model.Name
			}
			o.Temperature = c.Model.Temperature
			o.MaxCompletionTokens = c.Model.MaxTokens
		}), nil
	case ProviderMock:
		return model.NewMockLLM("mock"), nil
	default:
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unknown model provider %q", c.Model.Provider)}
	}
}
